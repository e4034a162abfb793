// CSV seeding.
//
// The original deployment bootstrapped its records from HR spreadsheets.
// Here the same data arrives as CSV exports placed in a seed directory and
// is loaded once, when the corresponding table is still empty.
package repo

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/SameedHusayn/staffsync-ai/internal/domain"
)

// Seed file names expected in the seed directory.
const (
	seedEmployees = "employees.csv"
	seedBalances  = "balances.csv"
)

// SeedFromDir populates empty employee and balance tables from CSV exports
// under dir. Missing files are skipped silently; a missing seed directory
// is not an error (fresh dev environments start empty).
func SeedFromDir(ctx context.Context, db *gorm.DB, dir string) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); err != nil {
		return nil
	}

	if empty, err := tableEmpty(ctx, db, &domain.Employee{}); err != nil {
		return err
	} else if empty {
		rows, err := readCSV(filepath.Join(dir, seedEmployees))
		if err != nil {
			return err
		}
		for _, r := range rows {
			if len(r) < 4 {
				continue
			}
			if err := db.WithContext(ctx).Create(&domain.Employee{
				EmployeeID: r[0],
				Name:       r[1],
				Email:      r[2],
				Lead:       r[3],
			}).Error; err != nil {
				return err
			}
		}
		if len(rows) > 0 {
			log.Info().Int("rows", len(rows)).Msg("seeded employee directory")
		}
	}

	if empty, err := tableEmpty(ctx, db, &domain.LeaveBalance{}); err != nil {
		return err
	} else if empty {
		rows, err := readCSV(filepath.Join(dir, seedBalances))
		if err != nil {
			return err
		}
		for _, r := range rows {
			if len(r) < 4 {
				continue
			}
			annual, _ := strconv.Atoi(r[1])
			sick, _ := strconv.Atoi(r[2])
			casual, _ := strconv.Atoi(r[3])
			if err := db.WithContext(ctx).Create(&domain.LeaveBalance{
				EmployeeID:  r[0],
				AnnualLeave: annual,
				SickLeave:   sick,
				CasualLeave: casual,
			}).Error; err != nil {
				return err
			}
		}
		if len(rows) > 0 {
			log.Info().Int("rows", len(rows)).Msg("seeded leave balances")
		}
	}

	return nil
}

func tableEmpty(ctx context.Context, db *gorm.DB, model any) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

// readCSV loads all data rows of a headered CSV file. A missing file
// yields no rows.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	rd := csv.NewReader(f)
	rd.TrimLeadingSpace = true
	all, err := rd.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) <= 1 {
		return nil, nil
	}
	return all[1:], nil
}
