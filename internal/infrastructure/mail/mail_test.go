package mail

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
)

func TestSeqRange(t *testing.T) {
	from, to, ok := seqRange(100, 20)
	assert.True(t, ok)
	assert.Equal(t, uint32(81), from)
	assert.Equal(t, uint32(100), to)

	from, to, ok = seqRange(5, 20)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), from)
	assert.Equal(t, uint32(5), to)

	_, _, ok = seqRange(0, 20)
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	at := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	m := &imap.Message{
		Uid:   42,
		Flags: []string{imap.SeenFlag},
		Envelope: &imap.Envelope{
			Subject: "Deklaracja VAT",
			Date:    at,
			From:    []*imap.Address{{PersonalName: "Jan Kowalski", MailboxName: "jan", HostName: "firma.pl"}},
			To:      []*imap.Address{{MailboxName: "biuro", HostName: "biuro.pl"}},
		},
	}
	s := summarize(m)
	assert.Equal(t, uint32(42), s.UID)
	assert.True(t, s.Seen)
	assert.Equal(t, "Jan Kowalski <jan@firma.pl>", s.From)
	assert.Equal(t, []string{"biuro@biuro.pl"}, s.To)
	assert.Equal(t, at, s.Date)
}

func TestBuildMessage(t *testing.T) {
	creds := ports.MailboxCredentials{EmailAddress: "biuro@biuro.pl", DisplayName: "Biuro"}
	m := buildMessage(creds, ports.OutgoingMail{
		To: []string{"klient@firma.pl"}, Cc: []string{"szef@biuro.pl"},
		Subject: "Oferta", Body: "<b>Dzień dobry</b>", HTML: true,
	})
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "To: klient@firma.pl")
	assert.Contains(t, raw, "Cc: szef@biuro.pl")
	assert.Contains(t, raw, "text/html")
	assert.True(t, strings.Contains(raw, "From: \"Biuro\" <biuro@biuro.pl>") || strings.Contains(raw, "From: Biuro <biuro@biuro.pl>"), raw)
}

func TestDialer_TLSImplicitoSoloEn465(t *testing.T) {
	d := dialer(ports.MailboxCredentials{SMTPHost: "smtp.biuro.pl", SMTPPort: 465, SMTPUseTLS: true})
	assert.True(t, d.SSL)
	d = dialer(ports.MailboxCredentials{SMTPHost: "smtp.biuro.pl", SMTPPort: 587, SMTPUseTLS: true})
	assert.False(t, d.SSL)
}

func TestSender_RespetaElContexto(t *testing.T) {
	s := NewSMTPSender(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.run(ctx, func() error { time.Sleep(200 * time.Millisecond); return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
