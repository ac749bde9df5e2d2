package email

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"jobhunt-aggregator/internal/errors"
)

// Message is one mail as far as alert parsing cares. Raw is the full
// RFC822 message, fetched with BODY.PEEK[] so reading it leaves it unseen.
type Message struct {
	UID     imap.UID
	From    string
	Subject string
	Date    time.Time
	Raw     []byte
}

// mailbox is the slice of an IMAP session the fetcher needs.
type mailbox interface {
	Unseen(ctx context.Context, since time.Time, max int) ([]Message, error)
	MarkSeen(uids []imap.UID) error
	Close() error
}

type imapMailbox struct {
	c    *imapclient.Client
	stop func() bool
}

// dialIMAP connects over TLS, logs in and selects name.
func dialIMAP(ctx context.Context, host string, port int, username, password, name string) (*imapMailbox, error) {
	if host == "" {
		return nil, errors.New("imap host is required")
	}
	if username == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}
	if port == 0 {
		port = 993
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "imap dial %s", addr)
	}

	// Unblocks any pending command once the poll is abandoned.
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	m := &imapMailbox{c: c, stop: stop}

	if err := c.Login(username, password).Wait(); err != nil {
		stop()
		_ = c.Close()
		return nil, errors.WithHint(errors.Wrap(err, "imap login"),
			"gmail needs an app password; store it with POST /api/secrets/imap")
	}
	if _, err := c.Select(name, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		stop()
		_ = c.Close()
		return nil, errors.Wrapf(err, "imap select %q", name)
	}
	return m, nil
}

// Unseen returns up to max unseen messages received after since, newest
// first.
func (m *imapMailbox) Unseen(ctx context.Context, since time.Time, max int) ([]Message, error) {
	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   since,
	}
	searchData, err := m.c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, errors.Wrap(err, "imap uid search unseen")
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return []Message{}, nil
	}
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if max > 0 && len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchCmd := m.c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	out := make([]Message, 0, len(uids))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, errors.Wrap(err, "imap fetch collect")
		}

		msg := Message{UID: buf.UID}
		if buf.Envelope != nil {
			msg.Subject = buf.Envelope.Subject
			msg.Date = buf.Envelope.Date
			msg.From = joinAddrs(buf.Envelope.From)
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			msg.Raw = append([]byte(nil), b...)
		}
		out = append(out, msg)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, errors.Wrap(err, "imap fetch close")
	}
	return out, nil
}

// MarkSeen sets \Seen on uids. Store returns a fetch command whose Close
// reports the final status.
func (m *imapMailbox) MarkSeen(uids []imap.UID) error {
	if len(uids) == 0 {
		return nil
	}
	cmd := m.c.Store(imap.UIDSetNum(uids...), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	return errors.Wrap(cmd.Close(), "imap store add seen")
}

func (m *imapMailbox) Close() error {
	m.stop()
	_ = m.c.Logout().Wait()
	return m.c.Close()
}

func joinAddrs(addrs []imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for i := range addrs {
		a := &addrs[i]
		addr := strings.TrimSpace(a.Addr())
		if addr == "" {
			addr = strings.TrimSpace(a.Name)
		}
		if addr != "" {
			parts = append(parts, addr)
		}
	}
	return strings.Join(parts, ", ")
}
