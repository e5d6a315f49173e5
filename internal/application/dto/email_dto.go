package dto

import "time"

// EmailConfigRequest configuración de buzón. Password vacío en una actualización conserva el anterior.
type EmailConfigRequest struct {
	EmailAddress string `json:"email_address" validate:"required,email"`
	DisplayName  string `json:"display_name" validate:"max=200"`
	IMAPHost     string `json:"imap_host" validate:"required,hostname|ip"`
	IMAPPort     int    `json:"imap_port" validate:"required,min=1,max=65535"`
	IMAPUseTLS   bool   `json:"imap_use_tls"`
	SMTPHost     string `json:"smtp_host" validate:"required,hostname|ip"`
	SMTPPort     int    `json:"smtp_port" validate:"required,min=1,max=65535"`
	SMTPUseTLS   bool   `json:"smtp_use_tls"`
	Username     string `json:"username" validate:"required"`
	Password     string `json:"password"`
}

// EmailConfigResponse configuración sin la contraseña.
type EmailConfigResponse struct {
	EmailAddress string    `json:"email_address"`
	DisplayName  string    `json:"display_name"`
	IMAPHost     string    `json:"imap_host"`
	IMAPPort     int       `json:"imap_port"`
	IMAPUseTLS   bool      `json:"imap_use_tls"`
	SMTPHost     string    `json:"smtp_host"`
	SMTPPort     int       `json:"smtp_port"`
	SMTPUseTLS   bool      `json:"smtp_use_tls"`
	Username     string    `json:"username"`
	HasPassword  bool      `json:"has_password"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SendEmailRequest envío de correo.
type SendEmailRequest struct {
	To      []string `json:"to" validate:"required,min=1,dive,email"`
	Cc      []string `json:"cc" validate:"omitempty,dive,email"`
	Subject string   `json:"subject" validate:"required,max=300"`
	Body    string   `json:"body" validate:"required"`
	HTML    bool     `json:"html"`
}

// ConnectionTestResponse resultado de probar IMAP y SMTP.
type ConnectionTestResponse struct {
	IMAPOK    bool   `json:"imap_ok"`
	IMAPError string `json:"imap_error,omitempty"`
	SMTPOK    bool   `json:"smtp_ok"`
	SMTPError string `json:"smtp_error,omitempty"`
}
