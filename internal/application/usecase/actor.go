package usecase

import (
	"github.com/jhoicas/OficinaContable-api/internal/domain"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

// Actor identidad que ejecuta un caso de uso (sale de los claims del JWT).
type Actor struct {
	UserID    string
	CompanyID string
	Role      string
}

func (a Actor) IsAdmin() bool    { return a.Role == entity.RoleAdmin }
func (a Actor) IsOwner() bool    { return a.Role == entity.RoleCompanyOwner }
func (a Actor) IsEmployee() bool { return a.Role == entity.RoleEmployee }

// CanManage indica si el actor puede tocar recursos de otros usuarios de su empresa.
func (a Actor) CanManage() bool { return a.IsAdmin() || a.IsOwner() }

// requireCompany exige un actor con empresa.
func (a Actor) requireCompany() error {
	if a.CompanyID == "" {
		return domain.ErrUnauthorized
	}
	return nil
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
