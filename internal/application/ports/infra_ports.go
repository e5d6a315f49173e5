package ports

import (
	"context"
	"io"
	"time"

	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

// PermissionCache caché de decisiones de permisos (Redis). Found=false = miss.
// decision es "ok", "disabled" o "denied".
type PermissionCache interface {
	Get(ctx context.Context, key string) (decision string, found bool, err error)
	Set(ctx context.Context, key string, decision string) error
	InvalidateCompany(ctx context.Context, companyID string) error
	InvalidateUser(ctx context.Context, companyID, userID string) error
	InvalidateModule(ctx context.Context, slug string) error
}

// ObjectStorage almacenamiento de binarios (íconos de clientes).
type ObjectStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
}

// OutgoingMail mensaje a enviar por SMTP.
type OutgoingMail struct {
	To      []string
	Cc      []string
	Subject string
	Body    string
	HTML    bool
}

// MailboxCredentials datos de conexión descifrados de un buzón.
type MailboxCredentials struct {
	EmailAddress string
	DisplayName  string
	IMAPHost     string
	IMAPPort     int
	IMAPUseTLS   bool
	SMTPHost     string
	SMTPPort     int
	SMTPUseTLS   bool
	Username     string
	Password     string
}

// MessageSummary sobre de un mensaje leído por IMAP.
type MessageSummary struct {
	UID     uint32    `json:"uid"`
	From    string    `json:"from"`
	To      []string  `json:"to"`
	Subject string    `json:"subject"`
	Date    time.Time `json:"date"`
	Seen    bool      `json:"seen"`
}

// MailSender envía correo por SMTP.
type MailSender interface {
	Send(ctx context.Context, creds MailboxCredentials, msg OutgoingMail) error
	Check(ctx context.Context, creds MailboxCredentials) error
}

// MailReader lee buzones por IMAP.
type MailReader interface {
	Latest(ctx context.Context, creds MailboxCredentials, mailbox string, limit int) ([]MessageSummary, error)
	Check(ctx context.Context, creds MailboxCredentials) error
}

// NotificationPublisher publica eventos de notificación a un broker.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n *entity.Notification) error
}

// OfferPDFGenerator representa gráficamente una oferta.
type OfferPDFGenerator interface {
	GenerateOfferPDF(ctx context.Context, offer *entity.Offer, company *entity.Company, recipient OfferRecipient) ([]byte, error)
}

// OfferRecipient destinatario (cliente o lead) impreso en la oferta.
type OfferRecipient struct {
	Name    string
	NIP     string
	Email   string
	Address string
}

// SecretBox cifra secretos en reposo.
type SecretBox interface {
	Enabled() bool
	Seal(plaintext string) (string, error)
	Open(encoded string) (string, error)
}
