// Tool execution.
//
// Every variant of the closed tool set is handled here, after the gate has
// allowed it. Downstream I/O failures are caught at this boundary and
// converted to user-safe messages; they never abort the session.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/SameedHusayn/staffsync-ai/internal/auth"
	"github.com/SameedHusayn/staffsync-ai/internal/domain"
	"github.com/SameedHusayn/staffsync-ai/internal/mailer"
	"github.com/SameedHusayn/staffsync-ai/internal/repo"
)

const storeFailure = "Sorry, I couldn't reach the HR records right now. Please try again in a moment."

type execResult struct {
	ok      bool
	message string
}

func failure(msg string) execResult { return execResult{message: msg} }
func success(msg string) execResult { return execResult{ok: true, message: msg} }

// execute runs one allowed (or resumed) tool call and renders its
// user-facing result.
func (a *Assistant) execute(ctx context.Context, userID string, call *domain.ToolCall) execResult {
	switch args := call.Args.(type) {
	case *domain.GetEmployeeBalanceArgs:
		return a.execGetBalance(ctx, args)
	case *domain.GetEmployeeInfoArgs:
		return a.execGetInfo(ctx, args)
	case *domain.GetEmployeeLogsArgs:
		return a.execGetLogs(ctx, args)
	case *domain.UpdateLeaveBalanceArgs:
		return a.execUpdateBalance(ctx, args)
	case *domain.AddLeaveLogArgs:
		return a.execAddLeaveLog(ctx, args)
	case *domain.UpdateLeaveLogStatusArgs:
		return a.execUpdateLogStatus(ctx, args)
	case *domain.FileSearchArgs:
		return a.execFileSearch(args)
	default:
		log.Error().Str("tool", string(call.Name)).Msg("unhandled tool variant")
		return failure(genericFailure)
	}
}

func (a *Assistant) execGetBalance(ctx context.Context, args *domain.GetEmployeeBalanceArgs) execResult {
	bal, err := repo.GetLeaveBalance(ctx, a.db, args.EmployeeID)
	if err != nil {
		log.Error().Err(err).Msg("balance lookup failed")
		return failure(storeFailure)
	}
	if bal == nil {
		return failure(fmt.Sprintf("No balance record found for employee ID %s.", args.EmployeeID))
	}
	return success(fmt.Sprintf(
		"Here are your remaining leave balances:\n- Annual Leave: %d day(s)\n- Sick Leave: %d day(s)\n- Casual Leave: %d day(s)",
		bal.AnnualLeave, bal.SickLeave, bal.CasualLeave))
}

func (a *Assistant) execGetInfo(ctx context.Context, args *domain.GetEmployeeInfoArgs) execResult {
	emp, err := repo.GetEmployee(ctx, a.db, args.EmployeeID)
	if err != nil {
		log.Error().Err(err).Msg("directory lookup failed")
		return failure(storeFailure)
	}
	if emp == nil {
		return failure(fmt.Sprintf("No record found for employee ID %s.", args.EmployeeID))
	}
	return success(fmt.Sprintf(
		"Employee %s:\n- Name: %s\n- Email: %s\n- Lead: %s",
		emp.EmployeeID, emp.Name, auth.MaskEmail(emp.Email), emp.Lead))
}

func (a *Assistant) execGetLogs(ctx context.Context, args *domain.GetEmployeeLogsArgs) execResult {
	logs, err := repo.GetLeaveLogs(ctx, a.db, args.EmployeeID)
	if err != nil {
		log.Error().Err(err).Msg("leave log lookup failed")
		return failure(storeFailure)
	}
	if len(logs) == 0 {
		return success("You have no leave requests on record.")
	}
	var b strings.Builder
	b.WriteString("Here are your leave requests:\n")
	for _, lg := range logs {
		fmt.Fprintf(&b, "- #%d: %s, %d day(s), %s to %s, status: %s\n",
			lg.RequestID, lg.LeaveType, lg.Days, lg.StartDate, lg.EndDate, lg.Status)
	}
	return success(strings.TrimRight(b.String(), "\n"))
}

func (a *Assistant) execUpdateBalance(ctx context.Context, args *domain.UpdateLeaveBalanceArgs) execResult {
	ok, err := repo.UpdateLeaveBalance(ctx, a.db, args.EmployeeID, args.LeaveType, args.DaysChange)
	if err != nil {
		log.Error().Err(err).Msg("balance update failed")
		return failure(storeFailure)
	}
	if !ok {
		return failure(fmt.Sprintf("No balance record found for employee ID %s.", args.EmployeeID))
	}
	return success(fmt.Sprintf("Updated %s for employee %s by %+d day(s).",
		args.LeaveType, args.EmployeeID, args.DaysChange))
}

func (a *Assistant) execAddLeaveLog(ctx context.Context, args *domain.AddLeaveLogArgs) execResult {
	requestID, err := repo.AddLeaveLog(ctx, a.db, *args)
	if err != nil {
		log.Error().Err(err).Msg("leave log insert failed")
		return failure(storeFailure)
	}

	// Notify the employee's lead. Best effort: a mail failure downgrades
	// the confirmation text but never the filed request.
	notified := a.notifyLead(ctx, args, requestID)

	msg := fmt.Sprintf("Your leave request #%d (%s, %d day(s), %s to %s) has been submitted and is pending approval.",
		requestID, args.LeaveType, args.Days, args.StartDate, args.EndDate)
	if notified {
		msg += " Your lead has been notified by email."
	}
	return success(msg)
}

func (a *Assistant) notifyLead(ctx context.Context, args *domain.AddLeaveLogArgs, requestID int) bool {
	emp, err := repo.GetEmployee(ctx, a.db, args.EmployeeID)
	if err != nil || emp == nil || emp.Lead == "" {
		return false
	}
	lead, err := repo.GetEmployeeByName(ctx, a.db, emp.Lead)
	if err != nil || lead == nil {
		log.Warn().Str("lead", emp.Lead).Msg("lead not found in directory")
		return false
	}
	return a.mailer.SendLeaveRequest(ctx, lead.Email, mailer.LeaveRequestEmail{
		EmployeeName: emp.Name,
		RequestID:    requestID,
		LeaveType:    args.LeaveType,
		Days:         args.Days,
		StartDate:    args.StartDate,
		EndDate:      args.EndDate,
		SubmittedAt:  time.Now().Format("2006-01-02 15:04:05"),
	})
}

func (a *Assistant) execUpdateLogStatus(ctx context.Context, args *domain.UpdateLeaveLogStatusArgs) execResult {
	ok, err := repo.UpdateLeaveLogStatus(ctx, a.db, args.RequestID, args.NewStatus, args.ApprovedBy)
	if err != nil {
		log.Error().Err(err).Msg("leave status update failed")
		return failure(storeFailure)
	}
	if !ok {
		return failure(fmt.Sprintf("Leave request #%d was not found.", args.RequestID))
	}
	a.notifyStatus(ctx, args)
	return success(fmt.Sprintf("Leave request #%d is now %s.", args.RequestID, args.NewStatus))
}

// notifyStatus emails the requesting employee about the decision. Best
// effort, like the lead notification.
func (a *Assistant) notifyStatus(ctx context.Context, args *domain.UpdateLeaveLogStatusArgs) {
	lg, err := repo.GetLeaveLog(ctx, a.db, args.RequestID)
	if err != nil || lg == nil {
		return
	}
	emp, err := repo.GetEmployee(ctx, a.db, lg.EmployeeID)
	if err != nil || emp == nil {
		return
	}
	a.mailer.SendLeaveStatus(ctx, emp.Email, mailer.LeaveStatusEmail{
		EmployeeName: emp.Name,
		RequestID:    args.RequestID,
		NewStatus:    args.NewStatus,
		ApprovedBy:   args.ApprovedBy,
	})
}

func (a *Assistant) execFileSearch(args *domain.FileSearchArgs) execResult {
	results := a.index.TopK(args.QueryText, 3)

	var kept []string
	for _, r := range results {
		if a.threshold > 0 && r.Score < a.threshold {
			continue
		}
		kept = append(kept, fmt.Sprintf("[%s] %s", r.Source, r.Snippet))
	}
	if len(kept) == 0 {
		return success("No relevant policy passages were found for this question.")
	}
	return success("Here is the context from the policy documents:\n" + strings.Join(kept, "\n\n"))
}
