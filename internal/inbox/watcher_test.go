package inbox

import (
	"strings"
	"testing"
)

func rawMessage(body string) string {
	return "From: dana@example.com\r\n" +
		"To: bot@example.com\r\n" +
		"Subject: Re: Leave Request #7 - Approval Needed\r\n" +
		"\r\n" +
		body
}

func TestFirstVisibleLine(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bare decision", "Y\r\n", "Y"},
		{"leading blank lines", "\r\n\r\nN\r\n", "N"},
		{"whitespace around decision", "  y  \r\n", "y"},
		{
			"quoted reply below decision",
			"Y\r\n\r\nOn Mon, Aug 31, 2026 Alice wrote:\r\n> please approve\r\n",
			"Y",
		},
		{
			"attribution line above decision",
			"On Mon, Aug 31, 2026 Alice wrote:\r\nN\r\n",
			"N",
		},
		{
			"mime part noise",
			"--boundary42\r\nContent-Type: text/plain\r\n\r\nY\r\n--boundary42--\r\n",
			"Y",
		},
		{"quoted only", "> Y\r\n> N\r\n", ""},
		{"empty body", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := firstVisibleLine(strings.NewReader(rawMessage(tc.body)))
			if got != tc.want {
				t.Fatalf("firstVisibleLine = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFirstVisibleLine_NotAMessage(t *testing.T) {
	if got := firstVisibleLine(strings.NewReader("no headers here")); got != "" {
		t.Fatalf("malformed message should yield empty reply, got %q", got)
	}
}

func TestSubjectPattern(t *testing.T) {
	cases := map[string]string{
		"Leave Request #42 - Approval Needed":    "42",
		"Re: Leave Request #7 - Approval Needed": "7",
		"Fwd: re: LEAVE REQUEST #103":            "103",
		"Weekly newsletter":                      "",
		"Leave Request pending (no number)":      "",
	}
	for subject, want := range cases {
		m := subjectPattern.FindStringSubmatch(subject)
		got := ""
		if m != nil {
			got = m[1]
		}
		if got != want {
			t.Fatalf("subject %q: got %q, want %q", subject, got, want)
		}
	}
}
