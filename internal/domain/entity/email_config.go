package entity

import "time"

// EmailConfig buzón IMAP/SMTP de un usuario. PasswordEnc va cifrado (pkg/crypto).
type EmailConfig struct {
	ID           string
	UserID       string
	CompanyID    string
	EmailAddress string
	DisplayName  string
	IMAPHost     string
	IMAPPort     int
	IMAPUseTLS   bool
	SMTPHost     string
	SMTPPort     int
	SMTPUseTLS   bool
	Username     string
	PasswordEnc  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
