package ports

import (
	"context"

	"github.com/jhoicas/OficinaContable-api/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Modules        repository.ModuleRepository
	CompanyModules repository.CompanyModuleRepository
	Permissions    repository.UserPermissionRepository
	Clients        repository.ClientRepository
	Leads          repository.LeadRepository
	Offers         repository.OfferRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD; Commit si fn devuelve nil, Rollback si no.
type TxRunner interface {
	Run(ctx context.Context, fn func(r TxRepos) error) error
}
