package mailer

import (
	"context"
	"strings"
	"testing"
)

func TestRender_OTPTemplate(t *testing.T) {
	body, err := render("otp.html.tmpl", struct{ Code string }{Code: "482913"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(body, "482913") {
		t.Fatalf("code missing from body: %s", body)
	}
}

func TestRender_LeaveRequestTemplate(t *testing.T) {
	body, err := render("leave_request.html.tmpl", LeaveRequestEmail{
		EmployeeName: "Alice Chen",
		RequestID:    7,
		LeaveType:    "Annual Leave",
		Days:         3,
		StartDate:    "2026-09-01",
		EndDate:      "2026-09-03",
		SubmittedAt:  "2026-08-30 10:00",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Alice Chen", "Annual Leave", "2026-09-01"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q: %s", want, body)
		}
	}
}

func TestRender_LeaveStatusTemplate(t *testing.T) {
	body, err := render("leave_status.html.tmpl", LeaveStatusEmail{
		EmployeeName: "Alice Chen",
		RequestID:    7,
		NewStatus:    "Approved",
		ApprovedBy:   "dana@example.com",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(body, "Approved") {
		t.Fatalf("status missing from body: %s", body)
	}
}

func TestRender_EscapesHTML(t *testing.T) {
	body, err := render("leave_status.html.tmpl", LeaveStatusEmail{
		EmployeeName: "<script>alert(1)</script>",
		RequestID:    1,
		NewStatus:    "Rejected",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Fatalf("unescaped user content in email body: %s", body)
	}
}

func TestDevMode_ReportsSuccessWithoutSending(t *testing.T) {
	m := NewSMTP("smtp.example.com", 587, "bot@example.com", "")
	ctx := context.Background()

	if !m.SendOTP(ctx, "alice@example.com", "123456") {
		t.Fatalf("dev mode OTP send should report success")
	}
	if !m.SendLeaveRequest(ctx, "dana@example.com", LeaveRequestEmail{RequestID: 1}) {
		t.Fatalf("dev mode request send should report success")
	}
	if !m.SendLeaveStatus(ctx, "alice@example.com", LeaveStatusEmail{RequestID: 1, NewStatus: "Approved"}) {
		t.Fatalf("dev mode status send should report success")
	}
}
