// Package mail conecta los buzones de los usuarios: envío por SMTP (gomail) y lectura por IMAP (go-imap).
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
)

var _ ports.MailSender = (*SMTPSender)(nil)

// SMTPSender envía con las credenciales del buzón de cada usuario.
type SMTPSender struct {
	timeout time.Duration
}

func NewSMTPSender(timeout time.Duration) *SMTPSender {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &SMTPSender{timeout: timeout}
}

func dialer(c ports.MailboxCredentials) *gomail.Dialer {
	d := gomail.NewDialer(c.SMTPHost, c.SMTPPort, c.Username, c.Password)
	// 465 = TLS implícito; el resto negocia STARTTLS si el servidor lo ofrece.
	d.SSL = c.SMTPUseTLS && c.SMTPPort == 465
	d.TLSConfig = &tls.Config{ServerName: c.SMTPHost, MinVersion: tls.VersionTLS12}
	return d
}

func buildMessage(c ports.MailboxCredentials, msg ports.OutgoingMail) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", c.EmailAddress, c.DisplayName)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	m.SetHeader("Subject", msg.Subject)
	if msg.HTML {
		m.SetBody("text/html", msg.Body)
	} else {
		m.SetBody("text/plain", msg.Body)
	}
	return m
}

// Send gomail no acepta context: la llamada corre en una goroutine y se abandona al vencer ctx.
func (s *SMTPSender) Send(ctx context.Context, creds ports.MailboxCredentials, msg ports.OutgoingMail) error {
	m := buildMessage(creds, msg)
	return s.run(ctx, func() error {
		if err := dialer(creds).DialAndSend(m); err != nil {
			return fmt.Errorf("smtp %s: %w", creds.SMTPHost, err)
		}
		return nil
	})
}

// Check abre y cierra una sesión autenticada.
func (s *SMTPSender) Check(ctx context.Context, creds ports.MailboxCredentials) error {
	return s.run(ctx, func() error {
		sc, err := dialer(creds).Dial()
		if err != nil {
			return fmt.Errorf("smtp %s: %w", creds.SMTPHost, err)
		}
		return sc.Close()
	})
}

func (s *SMTPSender) run(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("smtp: %w", ctx.Err())
	}
}
