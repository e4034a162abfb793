// HR record access.
//
// These functions mirror the row-oriented contract of the HR sheets the
// chatbot fronts: key lookups by employee id or request id, targeted
// updates, and append-style inserts. "Not found" is reported through the
// boolean/nil return, not an error, so callers can phrase a friendly reply.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/SameedHusayn/staffsync-ai/internal/domain"
)

// GetEmployee fetches the directory row for employeeID. Returns (nil, nil)
// when the employee does not exist.
func GetEmployee(ctx context.Context, db *gorm.DB, employeeID string) (*domain.Employee, error) {
	var emp domain.Employee
	err := db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&emp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// GetEmployeeByName fetches a directory row by exact name. Used to resolve
// a lead's email when routing approval requests.
func GetEmployeeByName(ctx context.Context, db *gorm.DB, name string) (*domain.Employee, error) {
	var emp domain.Employee
	err := db.WithContext(ctx).Where("name = ?", name).First(&emp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// GetLeaveBalance fetches the balance row for employeeID. Returns
// (nil, nil) when the employee has no balance row.
func GetLeaveBalance(ctx context.Context, db *gorm.DB, employeeID string) (*domain.LeaveBalance, error) {
	var bal domain.LeaveBalance
	err := db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&bal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bal, nil
}

// UpdateLeaveBalance adds daysChange (positive or negative) to one leave
// type for employeeID. Returns false when the employee has no balance row.
func UpdateLeaveBalance(ctx context.Context, db *gorm.DB, employeeID, leaveType string, daysChange int) (bool, error) {
	column, err := balanceColumn(leaveType)
	if err != nil {
		return false, err
	}
	res := db.WithContext(ctx).
		Model(&domain.LeaveBalance{}).
		Where("employee_id = ?", employeeID).
		UpdateColumn(column, gorm.Expr(column+" + ?", daysChange))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetLeaveLogs returns the leave logs for one employee, or every log when
// employeeID is empty, oldest first.
func GetLeaveLogs(ctx context.Context, db *gorm.DB, employeeID string) ([]domain.LeaveLog, error) {
	q := db.WithContext(ctx).Order("request_id ASC")
	if employeeID != "" {
		q = q.Where("employee_id = ?", employeeID)
	}
	var logs []domain.LeaveLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// GetLeaveLog fetches one log by its user-visible request id. Returns
// (nil, nil) when no such request exists.
func GetLeaveLog(ctx context.Context, db *gorm.DB, requestID int) (*domain.LeaveLog, error) {
	var lg domain.LeaveLog
	err := db.WithContext(ctx).Where("request_id = ?", requestID).First(&lg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lg, nil
}

// AddLeaveLog appends a new leave request and returns its request id
// (max existing id + 1, starting at 1). The insert and the id computation
// run in one transaction so concurrent requests cannot collide.
func AddLeaveLog(ctx context.Context, db *gorm.DB, args domain.AddLeaveLogArgs) (int, error) {
	var requestID int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxID int
		if err := tx.Model(&domain.LeaveLog{}).
			Select("COALESCE(MAX(request_id), 0)").
			Scan(&maxID).Error; err != nil {
			return err
		}
		requestID = maxID + 1

		status := args.Status
		if status == "" {
			status = domain.StatusPending
		}
		return tx.Create(&domain.LeaveLog{
			RequestID:   requestID,
			EmployeeID:  args.EmployeeID,
			LeaveType:   args.LeaveType,
			Days:        args.Days,
			StartDate:   args.StartDate,
			EndDate:     args.EndDate,
			Status:      status,
			SubmittedAt: time.Now(),
		}).Error
	})
	if err != nil {
		return 0, err
	}
	return requestID, nil
}

// UpdateLeaveLogStatus sets the status of a request, recording the approver
// and approval time when approvedBy is non-empty. Returns false when the
// request does not exist.
func UpdateLeaveLogStatus(ctx context.Context, db *gorm.DB, requestID int, newStatus, approvedBy string) (bool, error) {
	updates := map[string]any{"status": newStatus}
	if approvedBy != "" {
		now := time.Now()
		updates["approved_by"] = approvedBy
		updates["approval_date"] = &now
	}
	res := db.WithContext(ctx).
		Model(&domain.LeaveLog{}).
		Where("request_id = ?", requestID).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func balanceColumn(leaveType string) (string, error) {
	switch leaveType {
	case domain.LeaveAnnual:
		return "annual_leave", nil
	case domain.LeaveSick:
		return "sick_leave", nil
	case domain.LeaveCasual:
		return "casual_leave", nil
	default:
		return "", errors.New("unknown leave type: " + leaveType)
	}
}
