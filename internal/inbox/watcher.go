// Package inbox polls the HR mailbox for leads replying to leave-request
// notifications. A reply whose subject references "Leave Request #N" and
// whose first visible line is "Y" or "N" approves or rejects that request,
// updates the record, and notifies the employee.
//
// This path is trusted by construction: the lead already received the
// request by email, so a reply from their mailbox is treated as an approval
// decision without an OTP round trip.
package inbox

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/SameedHusayn/staffsync-ai/internal/config"
	"github.com/SameedHusayn/staffsync-ai/internal/domain"
	"github.com/SameedHusayn/staffsync-ai/internal/mailer"
	"github.com/SameedHusayn/staffsync-ai/internal/repo"
)

var subjectPattern = regexp.MustCompile(`(?i)Leave Request #(\d+)`)

// Watcher polls an IMAP mailbox and applies leave decisions found in
// replies.
type Watcher struct {
	cfg    config.IMAPConfig
	db     *gorm.DB
	mailer mailer.Mailer
}

// New constructs a Watcher.
func New(cfg config.IMAPConfig, db *gorm.DB, m mailer.Mailer) *Watcher {
	return &Watcher{cfg: cfg, db: db, mailer: m}
}

// Run polls until ctx is canceled. Each cycle opens a fresh connection so a
// dropped session never wedges the loop.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	log.Info().
		Str("host", w.cfg.Host).
		Dur("interval", w.cfg.PollInterval).
		Msg("inbox watcher started")

	for {
		if err := w.poll(ctx); err != nil {
			log.Warn().Err(err).Msg("inbox poll failed")
		}
		select {
		case <-ctx.Done():
			log.Info().Msg("inbox watcher stopped")
			return
		case <-ticker.C:
		}
	}
}

// poll processes every unseen reply in one connection.
func (w *Watcher) poll(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", w.cfg.Host, w.cfg.Port)
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer c.Logout()

	if err := c.Login(w.cfg.Username, w.cfg.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if _, err := c.Select("INBOX", false); err != nil {
		return fmt.Errorf("select inbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Header.Add("Subject", "Leave Request #")
	ids, err := c.Search(criteria)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, len(ids))
	fetchErr := make(chan error, 1)
	go func() {
		fetchErr <- c.Fetch(seqset, items, messages)
	}()

	for msg := range messages {
		w.handleMessage(ctx, msg, section)
	}
	if err := <-fetchErr; err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	// Mark everything we looked at as seen so the next cycle skips it,
	// including replies we could not parse.
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.Store(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("store seen: %w", err)
	}
	return nil
}

func (w *Watcher) handleMessage(ctx context.Context, msg *imap.Message, section *imap.BodySectionName) {
	if msg == nil || msg.Envelope == nil {
		return
	}

	m := subjectPattern.FindStringSubmatch(msg.Envelope.Subject)
	if m == nil {
		return
	}
	requestID, err := strconv.Atoi(m[1])
	if err != nil {
		return
	}

	var leadEmail string
	if len(msg.Envelope.From) > 0 {
		leadEmail = strings.ToLower(msg.Envelope.From[0].Address())
	}

	body := msg.GetBody(section)
	if body == nil {
		return
	}
	reply := firstVisibleLine(body)

	var verb string
	switch strings.ToLower(reply) {
	case "y":
		verb = domain.StatusApproved
	case "n":
		verb = domain.StatusRejected
	default:
		log.Debug().
			Int("request_id", requestID).
			Str("reply", reply).
			Msg("ignoring reply without Y/N decision")
		return
	}

	w.applyDecision(ctx, requestID, verb, leadEmail)
}

// applyDecision records the lead's verdict and notifies the employee.
func (w *Watcher) applyDecision(ctx context.Context, requestID int, verb, leadEmail string) {
	updated, err := repo.UpdateLeaveLogStatus(ctx, w.db, requestID, verb, leadEmail)
	if err != nil {
		log.Error().Err(err).Int("request_id", requestID).Msg("status update failed")
		return
	}
	if !updated {
		log.Warn().Int("request_id", requestID).Msg("reply references unknown request")
		return
	}

	log.Info().
		Int("request_id", requestID).
		Str("status", verb).
		Msg("leave decision applied from inbox reply")

	lg, err := repo.GetLeaveLog(ctx, w.db, requestID)
	if err != nil || lg == nil {
		return
	}
	emp, err := repo.GetEmployee(ctx, w.db, lg.EmployeeID)
	if err != nil || emp == nil {
		return
	}
	w.mailer.SendLeaveStatus(ctx, emp.Email, mailer.LeaveStatusEmail{
		EmployeeName: emp.Name,
		RequestID:    requestID,
		NewStatus:    verb,
		ApprovedBy:   leadEmail,
	})
}

// firstVisibleLine extracts the first line of reply text from a raw RFC 822
// message: headers are skipped, as are blank lines, quoted text, MIME
// boundaries, and part headers. Good enough for the one-character Y/N
// replies this mailbox receives.
func firstVisibleLine(r io.Reader) string {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return ""
	}
	sc := bufio.NewScanner(msg.Body)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ">") || strings.HasPrefix(line, "--") {
			continue
		}
		if strings.HasPrefix(line, "Content-") || strings.HasPrefix(line, "MIME-") {
			continue
		}
		if strings.HasPrefix(line, "On ") && strings.HasSuffix(line, "wrote:") {
			continue
		}
		return line
	}
	return ""
}
