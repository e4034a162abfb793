package repo

import (
	"context"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SameedHusayn/staffsync-ai/internal/domain"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedEmployee(t *testing.T, db *gorm.DB, id, name, email, lead string) {
	t.Helper()
	if err := db.Create(&domain.Employee{
		EmployeeID: id, Name: name, Email: email, Lead: lead,
	}).Error; err != nil {
		t.Fatalf("seed employee %s: %v", id, err)
	}
}

func seedBalance(t *testing.T, db *gorm.DB, id string, annual, sick, casual int) {
	t.Helper()
	if err := db.Create(&domain.LeaveBalance{
		EmployeeID: id, AnnualLeave: annual, SickLeave: sick, CasualLeave: casual,
	}).Error; err != nil {
		t.Fatalf("seed balance %s: %v", id, err)
	}
}

func TestGetEmployee(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	seedEmployee(t, db, "EMP001", "Alice Chen", "alice@example.com", "Dana Reed")

	emp, err := GetEmployee(ctx, db, "EMP001")
	if err != nil {
		t.Fatalf("GetEmployee: %v", err)
	}
	if emp == nil || emp.Name != "Alice Chen" || emp.Lead != "Dana Reed" {
		t.Fatalf("unexpected row: %+v", emp)
	}

	// Miss is (nil, nil), not an error.
	emp, err = GetEmployee(ctx, db, "EMP999")
	if err != nil || emp != nil {
		t.Fatalf("miss = (%+v, %v), want (nil, nil)", emp, err)
	}
}

func TestGetEmployeeByName(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	seedEmployee(t, db, "EMP002", "Dana Reed", "dana@example.com", "")

	emp, err := GetEmployeeByName(ctx, db, "Dana Reed")
	if err != nil || emp == nil || emp.EmployeeID != "EMP002" {
		t.Fatalf("GetEmployeeByName = (%+v, %v)", emp, err)
	}

	emp, err = GetEmployeeByName(ctx, db, "Nobody")
	if err != nil || emp != nil {
		t.Fatalf("miss = (%+v, %v), want (nil, nil)", emp, err)
	}
}

func TestGetLeaveBalance(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	seedBalance(t, db, "EMP001", 20, 10, 5)

	bal, err := GetLeaveBalance(ctx, db, "EMP001")
	if err != nil {
		t.Fatalf("GetLeaveBalance: %v", err)
	}
	if bal == nil || bal.AnnualLeave != 20 || bal.SickLeave != 10 || bal.CasualLeave != 5 {
		t.Fatalf("unexpected balances: %+v", bal)
	}

	bal, err = GetLeaveBalance(ctx, db, "EMP999")
	if err != nil || bal != nil {
		t.Fatalf("miss = (%+v, %v), want (nil, nil)", bal, err)
	}
}

func TestUpdateLeaveBalance(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	seedBalance(t, db, "EMP001", 20, 10, 5)

	ok, err := UpdateLeaveBalance(ctx, db, "EMP001", domain.LeaveAnnual, -3)
	if err != nil || !ok {
		t.Fatalf("UpdateLeaveBalance = (%v, %v)", ok, err)
	}
	bal, _ := GetLeaveBalance(ctx, db, "EMP001")
	if bal.AnnualLeave != 17 {
		t.Fatalf("annual = %d, want 17", bal.AnnualLeave)
	}

	// Positive deltas credit the balance.
	if ok, err := UpdateLeaveBalance(ctx, db, "EMP001", domain.LeaveSick, 2); err != nil || !ok {
		t.Fatalf("credit = (%v, %v)", ok, err)
	}
	bal, _ = GetLeaveBalance(ctx, db, "EMP001")
	if bal.SickLeave != 12 {
		t.Fatalf("sick = %d, want 12", bal.SickLeave)
	}

	// Missing employee reports false without error.
	ok, err = UpdateLeaveBalance(ctx, db, "EMP999", domain.LeaveCasual, 1)
	if err != nil || ok {
		t.Fatalf("missing employee = (%v, %v), want (false, nil)", ok, err)
	}

	// Unvetted leave type never reaches SQL.
	if _, err := UpdateLeaveBalance(ctx, db, "EMP001", "Sabbatical", 1); err == nil {
		t.Fatalf("expected unknown leave type error")
	}
}

func TestAddLeaveLog_SequentialRequestIDs(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	args := domain.AddLeaveLogArgs{
		EmployeeID: "EMP001",
		LeaveType:  domain.LeaveAnnual,
		Days:       2,
		StartDate:  "2026-09-01",
		EndDate:    "2026-09-02",
	}
	id1, err := AddLeaveLog(ctx, db, args)
	if err != nil || id1 != 1 {
		t.Fatalf("first request id = (%d, %v), want 1", id1, err)
	}
	id2, err := AddLeaveLog(ctx, db, args)
	if err != nil || id2 != 2 {
		t.Fatalf("second request id = (%d, %v), want 2", id2, err)
	}

	lg, err := GetLeaveLog(ctx, db, id1)
	if err != nil || lg == nil {
		t.Fatalf("GetLeaveLog = (%+v, %v)", lg, err)
	}
	if lg.Status != domain.StatusPending {
		t.Fatalf("default status = %q, want %q", lg.Status, domain.StatusPending)
	}
	if lg.SubmittedAt.IsZero() {
		t.Fatalf("submitted_at not stamped")
	}
}

func TestUpdateLeaveLogStatus(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	id, err := AddLeaveLog(ctx, db, domain.AddLeaveLogArgs{
		EmployeeID: "EMP001",
		LeaveType:  domain.LeaveSick,
		Days:       1,
		StartDate:  "2026-09-03",
		EndDate:    "2026-09-03",
	})
	if err != nil {
		t.Fatalf("AddLeaveLog: %v", err)
	}

	ok, err := UpdateLeaveLogStatus(ctx, db, id, domain.StatusApproved, "lead@example.com")
	if err != nil || !ok {
		t.Fatalf("UpdateLeaveLogStatus = (%v, %v)", ok, err)
	}
	lg, _ := GetLeaveLog(ctx, db, id)
	if lg.Status != domain.StatusApproved || lg.ApprovedBy != "lead@example.com" {
		t.Fatalf("approval not recorded: %+v", lg)
	}
	if lg.ApprovalDate == nil || lg.ApprovalDate.IsZero() {
		t.Fatalf("approval date not stamped")
	}

	// Unknown request id reports false.
	ok, err = UpdateLeaveLogStatus(ctx, db, 9999, domain.StatusRejected, "")
	if err != nil || ok {
		t.Fatalf("unknown request = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestGetLeaveLogs(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	for _, empID := range []string{"EMP001", "EMP002", "EMP001"} {
		if _, err := AddLeaveLog(ctx, db, domain.AddLeaveLogArgs{
			EmployeeID: empID,
			LeaveType:  domain.LeaveCasual,
			Days:       1,
			StartDate:  "2026-09-01",
			EndDate:    "2026-09-01",
		}); err != nil {
			t.Fatalf("AddLeaveLog(%s): %v", empID, err)
		}
	}

	logs, err := GetLeaveLogs(ctx, db, "EMP001")
	if err != nil {
		t.Fatalf("GetLeaveLogs: %v", err)
	}
	if len(logs) != 2 || logs[0].RequestID != 1 || logs[1].RequestID != 3 {
		t.Fatalf("unexpected logs for EMP001: %+v", logs)
	}

	// Empty id returns everything, oldest first.
	all, err := GetLeaveLogs(ctx, db, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("all logs = (%d, %v), want 3", len(all), err)
	}
	for i := 1; i < len(all); i++ {
		if all[i].RequestID < all[i-1].RequestID {
			t.Fatalf("logs out of order: %+v", all)
		}
	}
}
