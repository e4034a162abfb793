// Package domain defines the persistence models for the HR data store:
// the employee directory, leave balances, and leave request logs. These
// types are mapped with GORM and mirror the row-oriented layout of the
// HR spreadsheets they replace.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Leave request lifecycle statuses.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// Leave types recognized by the balance sheet.
const (
	LeaveAnnual = "Annual Leave"
	LeaveSick   = "Sick Leave"
	LeaveCasual = "Casual Leave"
)

// Employee is one row of the employee directory. The employee ID is the
// externally visible identifier used in every tool call; Lead names the
// employee's approver in the directory.
//
// Fields:
//   - EmployeeID: stable external identifier (e.g. "113654"); unique.
//   - Name / Email: contact details; Email receives OTP codes.
//   - Lead: directory name of the employee's lead (approves leave).
type Employee struct {
	ID         uint           `json:"-"           gorm:"primaryKey"`
	EmployeeID string         `json:"employee_id" gorm:"type:varchar(32);not null;uniqueIndex"`
	Name       string         `json:"name"        gorm:"type:varchar(128);not null"`
	Email      string         `json:"email"       gorm:"type:varchar(255);not null"`
	Lead       string         `json:"lead"        gorm:"type:varchar(128)"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Employee.
func (Employee) TableName() string { return "employees" }

// LeaveBalance tracks the remaining leave days per employee and leave type.
// One row per employee; columns mirror the balance sheet headers.
type LeaveBalance struct {
	ID          uint           `json:"-"            gorm:"primaryKey"`
	EmployeeID  string         `json:"employee_id"  gorm:"type:varchar(32);not null;uniqueIndex"`
	AnnualLeave int            `json:"annual_leave" gorm:"not null;default:0"`
	SickLeave   int            `json:"sick_leave"   gorm:"not null;default:0"`
	CasualLeave int            `json:"casual_leave" gorm:"not null;default:0"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for LeaveBalance.
func (LeaveBalance) TableName() string { return "leave_balances" }

// LeaveLog is one leave request. RequestID is the user-visible sequential
// identifier referenced in approval emails ("Leave Request #42"); approval
// metadata stays empty until a lead acts on the request.
type LeaveLog struct {
	ID           uint           `json:"-"             gorm:"primaryKey"`
	RequestID    int            `json:"request_id"    gorm:"not null;uniqueIndex"`
	EmployeeID   string         `json:"employee_id"   gorm:"type:varchar(32);not null;index"`
	LeaveType    string         `json:"leave_type"    gorm:"type:varchar(32);not null;check:leave_type IN ('Annual Leave','Sick Leave','Casual Leave')"`
	Days         int            `json:"days"          gorm:"not null"`
	StartDate    string         `json:"start_date"    gorm:"type:varchar(10);not null"`
	EndDate      string         `json:"end_date"      gorm:"type:varchar(10);not null"`
	Status       string         `json:"status"        gorm:"type:varchar(16);not null;default:'Pending';check:status IN ('Pending','Approved','Rejected')"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	ApprovedBy   string         `json:"approved_by,omitempty"   gorm:"type:varchar(255)"`
	ApprovalDate *time.Time     `json:"approval_date,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"             gorm:"index"`
}

// TableName returns the database table name for LeaveLog.
func (LeaveLog) TableName() string { return "leave_logs" }
