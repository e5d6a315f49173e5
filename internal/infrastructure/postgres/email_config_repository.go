package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
)

var _ repository.EmailConfigRepository = (*EmailConfigRepo)(nil)

// EmailConfigRepo un buzón por usuario; la contraseña llega ya cifrada.
type EmailConfigRepo struct {
	q Querier
}

func NewEmailConfigRepository(q Querier) *EmailConfigRepo {
	return &EmailConfigRepo{q: q}
}

func (r *EmailConfigRepo) GetByUser(ctx context.Context, userID string) (*entity.EmailConfig, error) {
	var c entity.EmailConfig
	err := r.q.QueryRow(ctx, `
		SELECT id, user_id, company_id, email_address, display_name, imap_host, imap_port, imap_use_tls,
		       smtp_host, smtp_port, smtp_use_tls, username, password_enc, created_at, updated_at
		FROM email_configs WHERE user_id = $1`, userID).Scan(
		&c.ID, &c.UserID, &c.CompanyID, &c.EmailAddress, &c.DisplayName, &c.IMAPHost, &c.IMAPPort, &c.IMAPUseTLS,
		&c.SMTPHost, &c.SMTPPort, &c.SMTPUseTLS, &c.Username, &c.PasswordEnc, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get email config: %w", err)
	}
	return &c, nil
}

// Upsert crea o reemplaza la configuración del usuario.
func (r *EmailConfigRepo) Upsert(ctx context.Context, c *entity.EmailConfig) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO email_configs (id, user_id, company_id, email_address, display_name, imap_host, imap_port, imap_use_tls,
		                           smtp_host, smtp_port, smtp_use_tls, username, password_enc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id) DO UPDATE SET
			email_address = EXCLUDED.email_address,
			display_name = EXCLUDED.display_name,
			imap_host = EXCLUDED.imap_host,
			imap_port = EXCLUDED.imap_port,
			imap_use_tls = EXCLUDED.imap_use_tls,
			smtp_host = EXCLUDED.smtp_host,
			smtp_port = EXCLUDED.smtp_port,
			smtp_use_tls = EXCLUDED.smtp_use_tls,
			username = EXCLUDED.username,
			password_enc = EXCLUDED.password_enc,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		c.ID, c.UserID, c.CompanyID, c.EmailAddress, c.DisplayName, c.IMAPHost, c.IMAPPort, c.IMAPUseTLS,
		c.SMTPHost, c.SMTPPort, c.SMTPUseTLS, c.Username, c.PasswordEnc, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID, &c.CreatedAt)
	return wrap("upsert email config", err)
}

func (r *EmailConfigRepo) DeleteByUser(ctx context.Context, userID string) (bool, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM email_configs WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("delete email config: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}
