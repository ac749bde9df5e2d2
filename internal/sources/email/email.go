// Package email turns LinkedIn job-alert mails into postings. It reads
// unseen messages over IMAP and marks them seen once their postings were
// ingested.
package email

import (
	"context"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"go.uber.org/zap"

	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/logger"
	"jobhunt-aggregator/internal/sources"
)

type Config struct {
	Host       string
	Port       int
	Username   string
	Mailbox    string
	SubjectAny []string
	MaxPerPoll int
	// Password is resolved on every run so a password stored after start
	// is picked up.
	Password func() (string, error)
}

type Fetcher struct {
	cfg  Config
	log  *zap.SugaredLogger
	now  func() time.Time
	dial func(ctx context.Context) (mailbox, error)
}

func New(cfg Config, log *zap.SugaredLogger) *Fetcher {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.MaxPerPoll <= 0 {
		cfg.MaxPerPoll = 50
	}
	f := &Fetcher{cfg: cfg, log: logger.OrNop(log), now: time.Now}
	f.dial = func(ctx context.Context) (mailbox, error) {
		if f.cfg.Password == nil {
			return nil, errors.New("imap password source is not configured")
		}
		pw, err := f.cfg.Password()
		if err != nil {
			return nil, err
		}
		mb, err := dialIMAP(ctx, f.cfg.Host, f.cfg.Port, f.cfg.Username, pw, f.cfg.Mailbox)
		if err != nil {
			return nil, err
		}
		return mb, nil
	}
	return f
}

func (f *Fetcher) Name() string { return "email" }

// Fetch reads unseen mails from the last three months. Every examined mail,
// alert or not, is marked seen by the batch's Finalize.
func (f *Fetcher) Fetch(ctx context.Context) (sources.Batch, error) {
	mb, err := f.dial(ctx)
	if err != nil {
		return sources.Batch{}, err
	}
	msgs, err := mb.Unseen(ctx, f.now().AddDate(0, -3, 0), f.cfg.MaxPerPoll)
	_ = mb.Close()
	if err != nil {
		return sources.Batch{}, err
	}

	var (
		postings []domain.PostingInput
		seen     = map[string]bool{}
		uids     = make([]imap.UID, 0, len(msgs))
	)
	for _, m := range msgs {
		uids = append(uids, m.UID)
		for _, p := range f.postingsFrom(m) {
			if seen[p.SourceID] {
				continue
			}
			seen[p.SourceID] = true
			postings = append(postings, p)
		}
	}

	f.log.Infow("email fetched", "messages", len(msgs), "postings", len(postings))
	return sources.Batch{
		Source:   domain.SourceLinkedIn,
		Postings: postings,
		Finalize: func(ctx context.Context) error { return f.markSeen(ctx, uids) },
	}, nil
}

func (f *Fetcher) postingsFrom(m Message) []domain.PostingInput {
	p := parseRFC822(m.Raw, m)
	if len(f.cfg.SubjectAny) > 0 && !containsAnyFold(p.Subject, f.cfg.SubjectAny) {
		return nil
	}
	if !looksLikeLinkedInJobAlert(p.From, p.Subject, p.HTML+p.Text) {
		return nil
	}
	jobs, err := ParseLinkedInAlert(p.HTML)
	if err != nil {
		f.log.Warnw("parse linkedin alert", "uid", m.UID, "subject", p.Subject, "error", err)
		return nil
	}

	posted := p.Date
	if posted.IsZero() {
		posted = f.now()
	}
	out := make([]domain.PostingInput, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, domain.PostingInput{
			SourceID:    j.JobID,
			Company:     j.Company,
			Title:       j.Title,
			Description: alertDescription(j),
			Location:    j.Location,
			URL:         j.URL,
			DatePosted:  posted.UTC(),
		})
	}
	return out
}

// alertDescription is all an alert says about a job; the full text lives
// behind the link.
func alertDescription(j AlertJob) string {
	parts := []string{j.Title, j.Company + " · " + j.Location}
	if j.Salary != "" {
		parts = append(parts, j.Salary)
	}
	return strings.Join(parts, "\n")
}

func (f *Fetcher) markSeen(ctx context.Context, uids []imap.UID) error {
	if len(uids) == 0 {
		return nil
	}
	mb, err := f.dial(ctx)
	if err != nil {
		return err
	}
	defer mb.Close()
	return mb.MarkSeen(uids)
}

func containsAnyFold(s string, needles []string) bool {
	s = strings.ToLower(s)
	for _, n := range needles {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}
