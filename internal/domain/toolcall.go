// Tool-call variants.
//
// The model's function invocations are decoded into a closed set of typed
// argument structures rather than dispatched through a name->func map. An
// unknown function name is a parse error, and every variant validates its
// own payload before any HR data is touched.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ToolName identifies one of the functions exposed to the model.
type ToolName string

// The closed function set.
const (
	ToolGetEmployeeBalance   ToolName = "get_employee_balance"
	ToolGetEmployeeInfo      ToolName = "get_employee_info"
	ToolGetEmployeeLogs      ToolName = "get_employee_logs"
	ToolUpdateLeaveBalance   ToolName = "update_leave_balance"
	ToolAddLeaveLog          ToolName = "add_leave_log"
	ToolUpdateLeaveLogStatus ToolName = "update_leave_log_status"
	ToolFileSearch           ToolName = "file_search"
)

// Validation errors surfaced by ParseToolCall.
var (
	// ErrUnknownTool is returned for a function name outside the closed set.
	ErrUnknownTool = errors.New("unknown tool name")

	// ErrPlaceholderEmployeeID is returned when the model emitted a literal
	// placeholder (e.g. "your_employee_id") instead of a real ID. An empty
	// employee id is not a parse error: the gate turns it into a prompt for
	// the user instead of a model repair round.
	ErrPlaceholderEmployeeID = errors.New("employee id is a placeholder, not an actual ID")
)

var (
	dateYMD    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	titleCaser = cases.Title(language.English)

	placeholderIDs = map[string]struct{}{
		"your_employee_id": {},
		"employee_id":      {},
		"your employee id": {},
		"employee id":      {},
	}
)

// ToolArgs is the validated argument payload of one tool-call variant.
type ToolArgs interface {
	// Validate checks the payload against the function's schema rules.
	Validate() error

	isToolArgs()
}

// ToolCall is a single structured function invocation from the model.
// Raw preserves the arguments exactly as received so a call suspended for
// authentication can be replayed verbatim after verification.
type ToolCall struct {
	Name   ToolName
	Args   ToolArgs
	CallID string
	Raw    json.RawMessage
}

// EmployeeTarget returns the employee id the call operates on. scoped is
// true for every variant that touches personal data; the id may still be
// empty when the model omitted it, which the gate reports as a missing
// target rather than executing anything.
func (c *ToolCall) EmployeeTarget() (id string, scoped bool) {
	switch a := c.Args.(type) {
	case *GetEmployeeBalanceArgs:
		return a.EmployeeID, true
	case *GetEmployeeInfoArgs:
		return a.EmployeeID, true
	case *GetEmployeeLogsArgs:
		return a.EmployeeID, true
	case *UpdateLeaveBalanceArgs:
		return a.EmployeeID, true
	case *AddLeaveLogArgs:
		return a.EmployeeID, true
	case *UpdateLeaveLogStatusArgs:
		// Status updates carry no employee id of their own; via chat they
		// require the caller to name one, via the inbox they bypass the gate.
		return "", true
	default:
		return "", false
	}
}

// GetEmployeeBalanceArgs asks for the remaining leave days of one employee.
type GetEmployeeBalanceArgs struct {
	EmployeeID string `json:"employee_id"`
}

func (a *GetEmployeeBalanceArgs) isToolArgs() {}

// Validate implements ToolArgs.
func (a *GetEmployeeBalanceArgs) Validate() error {
	return validateEmployeeID(&a.EmployeeID)
}

// GetEmployeeInfoArgs asks for an employee's directory entry.
type GetEmployeeInfoArgs struct {
	EmployeeID string `json:"employee_id"`
}

func (a *GetEmployeeInfoArgs) isToolArgs() {}

// Validate implements ToolArgs.
func (a *GetEmployeeInfoArgs) Validate() error {
	return validateEmployeeID(&a.EmployeeID)
}

// GetEmployeeLogsArgs lists an employee's leave requests.
type GetEmployeeLogsArgs struct {
	EmployeeID string `json:"employee_id"`
}

func (a *GetEmployeeLogsArgs) isToolArgs() {}

// Validate implements ToolArgs.
func (a *GetEmployeeLogsArgs) Validate() error {
	return validateEmployeeID(&a.EmployeeID)
}

// UpdateLeaveBalanceArgs adjusts one leave-type balance by a day delta.
type UpdateLeaveBalanceArgs struct {
	EmployeeID string `json:"employee_id"`
	LeaveType  string `json:"leave_type"`
	DaysChange int    `json:"days_change"`
}

func (a *UpdateLeaveBalanceArgs) isToolArgs() {}

// Validate implements ToolArgs.
func (a *UpdateLeaveBalanceArgs) Validate() error {
	if err := validateEmployeeID(&a.EmployeeID); err != nil {
		return err
	}
	var err error
	a.LeaveType, err = NormalizeLeaveType(a.LeaveType)
	if err != nil {
		return err
	}
	if a.DaysChange == 0 {
		return errors.New("days_change must be non-zero")
	}
	return nil
}

// AddLeaveLogArgs files a new leave request.
type AddLeaveLogArgs struct {
	EmployeeID string `json:"employee_id"`
	LeaveType  string `json:"leave_type"`
	Days       int    `json:"days"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Status     string `json:"status,omitempty"`
}

func (a *AddLeaveLogArgs) isToolArgs() {}

// Validate implements ToolArgs.
func (a *AddLeaveLogArgs) Validate() error {
	if err := validateEmployeeID(&a.EmployeeID); err != nil {
		return err
	}
	var err error
	a.LeaveType, err = NormalizeLeaveType(a.LeaveType)
	if err != nil {
		return err
	}
	if a.Days <= 0 {
		return errors.New("days must be positive")
	}
	if !dateYMD.MatchString(a.StartDate) {
		return fmt.Errorf("start_date %q is not YYYY-MM-DD", a.StartDate)
	}
	if !dateYMD.MatchString(a.EndDate) {
		return fmt.Errorf("end_date %q is not YYYY-MM-DD", a.EndDate)
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	switch a.Status {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return fmt.Errorf("status %q is not one of Pending/Approved/Rejected", a.Status)
	}
	return nil
}

// UpdateLeaveLogStatusArgs changes the status of an existing request.
// Reached from chat it still passes the gate (and, lacking an employee id,
// prompts for one); the inbox approval path calls the repo directly.
type UpdateLeaveLogStatusArgs struct {
	RequestID  int    `json:"request_id"`
	NewStatus  string `json:"new_status"`
	ApprovedBy string `json:"approved_by,omitempty"`
}

func (a *UpdateLeaveLogStatusArgs) isToolArgs() {}

// Validate implements ToolArgs.
func (a *UpdateLeaveLogStatusArgs) Validate() error {
	if a.RequestID <= 0 {
		return errors.New("request_id must be positive")
	}
	switch a.NewStatus {
	case StatusApproved, StatusRejected, StatusPending:
		return nil
	default:
		return fmt.Errorf("new_status %q is not one of Pending/Approved/Rejected", a.NewStatus)
	}
}

// FileSearchArgs queries the HR policy documents.
type FileSearchArgs struct {
	QueryText string `json:"query_text"`
}

func (a *FileSearchArgs) isToolArgs() {}

// Validate implements ToolArgs.
func (a *FileSearchArgs) Validate() error {
	a.QueryText = strings.TrimSpace(a.QueryText)
	if len(a.QueryText) < 3 {
		return errors.New("query_text must be at least 3 characters")
	}
	return nil
}

// ParseToolCall decodes and validates a model function invocation. The raw
// argument bytes are retained on the returned call for verbatim replay.
func ParseToolCall(name string, callID string, raw []byte) (*ToolCall, error) {
	var args ToolArgs
	switch ToolName(name) {
	case ToolGetEmployeeBalance:
		args = &GetEmployeeBalanceArgs{}
	case ToolGetEmployeeInfo:
		args = &GetEmployeeInfoArgs{}
	case ToolGetEmployeeLogs:
		args = &GetEmployeeLogsArgs{}
	case ToolUpdateLeaveBalance:
		args = &UpdateLeaveBalanceArgs{}
	case ToolAddLeaveLog:
		args = &AddLeaveLogArgs{}
	case ToolUpdateLeaveLogStatus:
		args = &UpdateLeaveLogStatusArgs{}
	case ToolFileSearch:
		args = &FileSearchArgs{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, args); err != nil {
			return nil, fmt.Errorf("decode %s arguments: %w", name, err)
		}
	}
	if err := args.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s arguments: %w", name, err)
	}

	return &ToolCall{
		Name:   ToolName(name),
		Args:   args,
		CallID: callID,
		Raw:    append(json.RawMessage(nil), raw...),
	}, nil
}

// NormalizeLeaveType maps loosely cased input ("annual leave") onto the
// canonical sheet header and rejects unknown leave types.
func NormalizeLeaveType(v string) (string, error) {
	t := titleCaser.String(strings.TrimSpace(v))
	switch t {
	case LeaveAnnual, LeaveSick, LeaveCasual:
		return t, nil
	default:
		return "", fmt.Errorf("leave_type %q is not one of Annual/Sick/Casual Leave", v)
	}
}

func validateEmployeeID(id *string) error {
	v := strings.TrimSpace(*id)
	if _, ok := placeholderIDs[strings.ToLower(v)]; ok {
		return ErrPlaceholderEmployeeID
	}
	*id = v
	return nil
}
