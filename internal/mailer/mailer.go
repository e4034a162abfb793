// Package mailer delivers the system's outbound email: OTP codes for the
// authentication gate, leave-request notifications to leads, and status
// updates back to employees. Delivery is strictly best-effort: every Send
// method reports success as a boolean and never propagates an error. A
// failed send must not block an authentication flow (the issued OTP stays
// verifiable; in dev mode it is readable from the logs).
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html.tmpl"))

// LeaveRequestEmail fills the approval request sent to a lead.
type LeaveRequestEmail struct {
	EmployeeName string
	RequestID    int
	LeaveType    string
	Days         int
	StartDate    string
	EndDate      string
	SubmittedAt  string
}

// LeaveStatusEmail fills the decision notification sent to the employee.
type LeaveStatusEmail struct {
	EmployeeName string
	RequestID    int
	NewStatus    string
	ApprovedBy   string
}

// Mailer is the outbound email contract consumed by the gate, the chat
// loop, and the inbox watcher.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) bool
	SendLeaveRequest(ctx context.Context, to string, data LeaveRequestEmail) bool
	SendLeaveStatus(ctx context.Context, to string, data LeaveStatusEmail) bool
}

// SMTP sends mail through a plain SMTP relay with STARTTLS. An empty
// password switches the mailer into dev mode: nothing leaves the process
// and message content is logged instead.
type SMTP struct {
	Host     string
	Port     int
	Sender   string
	Password string
}

// NewSMTP builds an SMTP mailer.
func NewSMTP(host string, port int, sender, password string) *SMTP {
	return &SMTP{Host: host, Port: port, Sender: sender, Password: password}
}

// SendOTP implements Mailer. In dev mode the code is logged at debug level
// so operators can complete the flow without a mailbox.
func (m *SMTP) SendOTP(ctx context.Context, to, code string) bool {
	body, err := render("otp.html.tmpl", struct{ Code string }{Code: code})
	if err != nil {
		log.Error().Err(err).Msg("render OTP email")
		return false
	}
	if m.devMode() {
		log.Debug().Str("code", code).Msg("dev mode: OTP not emailed")
		return true
	}
	return m.send(to, "StaffSync.AI - Authentication Code", body)
}

// SendLeaveRequest implements Mailer.
func (m *SMTP) SendLeaveRequest(ctx context.Context, to string, data LeaveRequestEmail) bool {
	body, err := render("leave_request.html.tmpl", data)
	if err != nil {
		log.Error().Err(err).Msg("render leave request email")
		return false
	}
	subject := fmt.Sprintf("Leave Request #%d - Approval Needed", data.RequestID)
	if m.devMode() {
		log.Debug().Int("request_id", data.RequestID).Msg("dev mode: leave request not emailed")
		return true
	}
	return m.send(to, subject, body)
}

// SendLeaveStatus implements Mailer.
func (m *SMTP) SendLeaveStatus(ctx context.Context, to string, data LeaveStatusEmail) bool {
	body, err := render("leave_status.html.tmpl", data)
	if err != nil {
		log.Error().Err(err).Msg("render leave status email")
		return false
	}
	subject := fmt.Sprintf("Leave Request #%d %s", data.RequestID, data.NewStatus)
	if m.devMode() {
		log.Debug().Int("request_id", data.RequestID).Msg("dev mode: status update not emailed")
		return true
	}
	return m.send(to, subject, body)
}

func (m *SMTP) devMode() bool { return m.Password == "" }

func (m *SMTP) send(to, subject, htmlBody string) bool {
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	auth := smtp.PlainAuth("", m.Sender, m.Password, m.Host)

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.Sender)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(addr, auth, m.Sender, []string{to}, msg.Bytes()); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("email send failed")
		return false
	}
	return true
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
