package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/OficinaContable-api/internal/application/dto"
	"github.com/jhoicas/OficinaContable-api/internal/application/ports"
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
)

const (
	defaultInboxLimit = 20
	maxInboxLimit     = 100
	mailTimeout       = 20 * time.Second
)

// EmailUseCase cliente de correo por usuario (IMAP + SMTP).
type EmailUseCase struct {
	repo   repository.EmailConfigRepository
	box    ports.SecretBox
	sender ports.MailSender
	reader ports.MailReader
}

// NewEmailUseCase construye el caso de uso.
func NewEmailUseCase(repo repository.EmailConfigRepository, box ports.SecretBox, sender ports.MailSender, reader ports.MailReader) *EmailUseCase {
	return &EmailUseCase{repo: repo, box: box, sender: sender, reader: reader}
}

// GetConfig devuelve la configuración del buzón del usuario (sin contraseña).
func (uc *EmailUseCase) GetConfig(ctx context.Context, a Actor) (*dto.EmailConfigResponse, error) {
	cfg, err := uc.load(ctx, a)
	if err != nil {
		return nil, err
	}
	return toEmailConfigResponse(cfg), nil
}

// SaveConfig crea o reemplaza la configuración. Password vacío conserva la anterior.
func (uc *EmailUseCase) SaveConfig(ctx context.Context, a Actor, in dto.EmailConfigRequest) (*dto.EmailConfigResponse, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	if !uc.box.Enabled() {
		return nil, domain.ErrNotConfigured
	}
	existing, err := uc.repo.GetByUser(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	cfg := existing
	if cfg == nil {
		if in.Password == "" {
			return nil, domain.Invalid("password", "obligatoria al crear la configuración")
		}
		cfg = &entity.EmailConfig{ID: uuid.New().String(), UserID: a.UserID, CompanyID: a.CompanyID, CreatedAt: now}
	}
	cfg.EmailAddress = strings.TrimSpace(in.EmailAddress)
	cfg.DisplayName = strings.TrimSpace(in.DisplayName)
	cfg.IMAPHost = strings.TrimSpace(in.IMAPHost)
	cfg.IMAPPort = in.IMAPPort
	cfg.IMAPUseTLS = in.IMAPUseTLS
	cfg.SMTPHost = strings.TrimSpace(in.SMTPHost)
	cfg.SMTPPort = in.SMTPPort
	cfg.SMTPUseTLS = in.SMTPUseTLS
	cfg.Username = strings.TrimSpace(in.Username)
	if in.Password != "" {
		enc, err := uc.box.Seal(in.Password)
		if err != nil {
			return nil, err
		}
		cfg.PasswordEnc = enc
	}
	cfg.UpdatedAt = now
	if err := uc.repo.Upsert(ctx, cfg); err != nil {
		return nil, err
	}
	return toEmailConfigResponse(cfg), nil
}

// DeleteConfig borra la configuración del usuario.
func (uc *EmailUseCase) DeleteConfig(ctx context.Context, a Actor) error {
	ok, err := uc.repo.DeleteByUser(ctx, a.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// Send envía un correo desde el buzón del usuario.
func (uc *EmailUseCase) Send(ctx context.Context, a Actor, in dto.SendEmailRequest) error {
	creds, err := uc.credentials(ctx, a)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()
	err = uc.sender.Send(ctx, *creds, ports.OutgoingMail{
		To:      in.To,
		Cc:      in.Cc,
		Subject: in.Subject,
		Body:    in.Body,
		HTML:    in.HTML,
	})
	return domain.Upstream("smtp", err)
}

// Inbox lista los últimos mensajes de un buzón IMAP (INBOX por defecto).
func (uc *EmailUseCase) Inbox(ctx context.Context, a Actor, mailbox string, limit int) ([]ports.MessageSummary, error) {
	creds, err := uc.credentials(ctx, a)
	if err != nil {
		return nil, err
	}
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if limit <= 0 {
		limit = defaultInboxLimit
	}
	if limit > maxInboxLimit {
		limit = maxInboxLimit
	}
	ctx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()
	list, err := uc.reader.Latest(ctx, *creds, mailbox, limit)
	if err != nil {
		return nil, domain.Upstream("imap", err)
	}
	return list, nil
}

// TestConnection prueba IMAP y SMTP por separado y devuelve el resultado de cada uno.
func (uc *EmailUseCase) TestConnection(ctx context.Context, a Actor) (*dto.ConnectionTestResponse, error) {
	creds, err := uc.credentials(ctx, a)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()
	res := &dto.ConnectionTestResponse{IMAPOK: true, SMTPOK: true}
	if err := uc.reader.Check(ctx, *creds); err != nil {
		res.IMAPOK, res.IMAPError = false, err.Error()
	}
	if err := uc.sender.Check(ctx, *creds); err != nil {
		res.SMTPOK, res.SMTPError = false, err.Error()
	}
	return res, nil
}

func (uc *EmailUseCase) load(ctx context.Context, a Actor) (*entity.EmailConfig, error) {
	if err := a.requireCompany(); err != nil {
		return nil, err
	}
	cfg, err := uc.repo.GetByUser(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrNotFound
	}
	return cfg, nil
}

func (uc *EmailUseCase) credentials(ctx context.Context, a Actor) (*ports.MailboxCredentials, error) {
	cfg, err := uc.load(ctx, a)
	if err != nil {
		return nil, err
	}
	password, err := uc.box.Open(cfg.PasswordEnc)
	if err != nil {
		return nil, fmt.Errorf("descifrar contraseña del buzón: %w", err)
	}
	return &ports.MailboxCredentials{
		EmailAddress: cfg.EmailAddress,
		DisplayName:  cfg.DisplayName,
		IMAPHost:     cfg.IMAPHost,
		IMAPPort:     cfg.IMAPPort,
		IMAPUseTLS:   cfg.IMAPUseTLS,
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUseTLS:   cfg.SMTPUseTLS,
		Username:     cfg.Username,
		Password:     password,
	}, nil
}

func toEmailConfigResponse(c *entity.EmailConfig) *dto.EmailConfigResponse {
	return &dto.EmailConfigResponse{
		EmailAddress: c.EmailAddress,
		DisplayName:  c.DisplayName,
		IMAPHost:     c.IMAPHost,
		IMAPPort:     c.IMAPPort,
		IMAPUseTLS:   c.IMAPUseTLS,
		SMTPHost:     c.SMTPHost,
		SMTPPort:     c.SMTPPort,
		SMTPUseTLS:   c.SMTPUseTLS,
		Username:     c.Username,
		HasPassword:  c.PasswordEnc != "",
		UpdatedAt:    c.UpdatedAt,
	}
}
