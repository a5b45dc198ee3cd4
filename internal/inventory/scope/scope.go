package scope

import (
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"
	"evinventory/pkg/roles"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
)

// Resolver narrows reads to the warehouses a caller may see. Repositories
// use Expression against their warehouses alias, in-memory code uses Allows.
type Resolver interface {
	Expression(warehouseAlias string) exp.Expression
	Allows(w models.Warehouse) bool
}

type ServiceCenterScope struct {
	ServiceCenterID uuid.UUID
}

func (s ServiceCenterScope) Expression(warehouseAlias string) exp.Expression {
	return goqu.I(warehouseAlias + ".service_center_id").Eq(s.ServiceCenterID)
}

func (s ServiceCenterScope) Allows(w models.Warehouse) bool {
	return w.ServiceCenterID != nil && *w.ServiceCenterID == s.ServiceCenterID
}

// CompanyScope covers the company's own warehouses and every service-center
// warehouse operating under it.
type CompanyScope struct {
	CompanyID uuid.UUID
}

func (s CompanyScope) Expression(warehouseAlias string) exp.Expression {
	return goqu.I(warehouseAlias + ".company_id").Eq(s.CompanyID)
}

func (s CompanyScope) Allows(w models.Warehouse) bool {
	return w.CompanyID != nil && *w.CompanyID == s.CompanyID
}

type UnscopedAdmin struct{}

func (UnscopedAdmin) Expression(string) exp.Expression {
	return goqu.L("TRUE")
}

func (UnscopedAdmin) Allows(models.Warehouse) bool {
	return true
}

// ForIdentity picks the scope variant for the caller's role.
func ForIdentity(identity models.Identity) (Resolver, error) {
	role := roles.Role(identity.RoleName)
	switch {
	case role == roles.Admin:
		return UnscopedAdmin{}, nil
	case role.IsServiceCenterRole():
		if identity.ServiceCenterID == nil {
			return nil, custom_error.NewForbidden("role %s requires a service center", role)
		}
		return ServiceCenterScope{ServiceCenterID: *identity.ServiceCenterID}, nil
	case role.IsCompanyRole():
		if identity.CompanyID == nil {
			return nil, custom_error.NewForbidden("role %s requires a company", role)
		}
		return CompanyScope{CompanyID: *identity.CompanyID}, nil
	default:
		return nil, custom_error.NewForbidden("unknown role %q", identity.RoleName)
	}
}

// Party is the side of a transfer request an actor stands on.
type Party int

const (
	Requester Party = iota
	Fulfiller
)

func (p Party) String() string {
	if p == Requester {
		return "requester"
	}
	return "fulfiller"
}

// PartyFor maps service-center roles to the requesting side and company
// roles (and admin) to the fulfilling side.
func PartyFor(role roles.Role) (Party, error) {
	switch {
	case role.IsServiceCenterRole():
		return Requester, nil
	case role.IsCompanyRole(), role == roles.Admin:
		return Fulfiller, nil
	default:
		return 0, custom_error.NewForbidden("unknown role %q", role)
	}
}
