package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sort"
	"strconv"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
)

var _ ports.MailReader = (*IMAPReader)(nil)

// IMAPReader lee sobres (sin cuerpos) de un buzón en modo solo lectura.
type IMAPReader struct {
	timeout time.Duration
}

func NewIMAPReader(timeout time.Duration) *IMAPReader {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &IMAPReader{timeout: timeout}
}

func (r *IMAPReader) connect(creds ports.MailboxCredentials) (*client.Client, error) {
	addr := net.JoinHostPort(creds.IMAPHost, strconv.Itoa(creds.IMAPPort))
	d := &net.Dialer{Timeout: r.timeout}
	var (
		c   *client.Client
		err error
	)
	if creds.IMAPUseTLS {
		c, err = client.DialWithDialerTLS(d, addr, &tls.Config{ServerName: creds.IMAPHost, MinVersion: tls.VersionTLS12})
	} else {
		c, err = client.DialWithDialer(d, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", addr, err)
	}
	c.Timeout = r.timeout
	if err := c.Login(creds.Username, creds.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return c, nil
}

// Check login + logout.
func (r *IMAPReader) Check(ctx context.Context, creds ports.MailboxCredentials) error {
	return r.run(ctx, func() error {
		c, err := r.connect(creds)
		if err != nil {
			return err
		}
		return c.Logout()
	})
}

// Latest devuelve los últimos limit mensajes del buzón, el más reciente primero.
func (r *IMAPReader) Latest(ctx context.Context, creds ports.MailboxCredentials, mailbox string, limit int) ([]ports.MessageSummary, error) {
	if mailbox == "" {
		mailbox = "INBOX"
	}
	var out []ports.MessageSummary
	err := r.run(ctx, func() error {
		c, err := r.connect(creds)
		if err != nil {
			return err
		}
		defer func() { _ = c.Logout() }()

		mbox, err := c.Select(mailbox, true)
		if err != nil {
			return fmt.Errorf("imap select %s: %w", mailbox, err)
		}
		from, to, ok := seqRange(mbox.Messages, limit)
		if !ok {
			out = []ports.MessageSummary{}
			return nil
		}
		seqset := new(imap.SeqSet)
		seqset.AddRange(from, to)

		messages := make(chan *imap.Message, to-from+1)
		done := make(chan error, 1)
		go func() {
			done <- c.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid}, messages)
		}()
		for m := range messages {
			out = append(out, summarize(m))
		}
		if err := <-done; err != nil {
			return fmt.Errorf("imap fetch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID > out[j].UID })
	return out, nil
}

// seqRange rango de secuencia de los últimos limit mensajes de un buzón con total mensajes.
func seqRange(total uint32, limit int) (from, to uint32, ok bool) {
	if total == 0 || limit <= 0 {
		return 0, 0, false
	}
	from = 1
	if total > uint32(limit) {
		from = total - uint32(limit) + 1
	}
	return from, total, true
}

func summarize(m *imap.Message) ports.MessageSummary {
	s := ports.MessageSummary{UID: m.Uid, To: []string{}}
	for _, f := range m.Flags {
		if f == imap.SeenFlag {
			s.Seen = true
		}
	}
	if m.Envelope == nil {
		return s
	}
	s.Subject = m.Envelope.Subject
	s.Date = m.Envelope.Date
	if len(m.Envelope.From) > 0 {
		s.From = formatAddress(m.Envelope.From[0])
	}
	for _, a := range m.Envelope.To {
		s.To = append(s.To, formatAddress(a))
	}
	return s
}

func formatAddress(a *imap.Address) string {
	if a == nil {
		return ""
	}
	if a.PersonalName != "" {
		return fmt.Sprintf("%s <%s>", a.PersonalName, a.Address())
	}
	return a.Address()
}

func (r *IMAPReader) run(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("imap: %w", ctx.Err())
	}
}
