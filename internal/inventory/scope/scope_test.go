package scope

import (
	"testing"

	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"
	"evinventory/pkg/roles"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForIdentity(t *testing.T) {
	scID := uuid.New()
	companyID := uuid.New()

	t.Run("service center role", func(t *testing.T) {
		resolver, err := ForIdentity(models.Identity{RoleName: "service_center_manager", ServiceCenterID: &scID})
		require.NoError(t, err)
		assert.Equal(t, ServiceCenterScope{ServiceCenterID: scID}, resolver)
	})

	t.Run("company role", func(t *testing.T) {
		resolver, err := ForIdentity(models.Identity{RoleName: "parts_coordinator_company", CompanyID: &companyID})
		require.NoError(t, err)
		assert.Equal(t, CompanyScope{CompanyID: companyID}, resolver)
	})

	t.Run("admin", func(t *testing.T) {
		resolver, err := ForIdentity(models.Identity{RoleName: "admin"})
		require.NoError(t, err)
		assert.Equal(t, UnscopedAdmin{}, resolver)
	})

	t.Run("service center role without service center", func(t *testing.T) {
		_, err := ForIdentity(models.Identity{RoleName: "service_center_staff"})
		var forbidden *custom_error.ForbiddenError
		assert.ErrorAs(t, err, &forbidden)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := ForIdentity(models.Identity{RoleName: "visitor"})
		var forbidden *custom_error.ForbiddenError
		assert.ErrorAs(t, err, &forbidden)
	})
}

func TestAllows(t *testing.T) {
	scID := uuid.New()
	companyID := uuid.New()
	scWarehouse := models.Warehouse{ID: uuid.New(), ServiceCenterID: &scID, CompanyID: &companyID}
	companyWarehouse := models.Warehouse{ID: uuid.New(), CompanyID: &companyID}

	assert.True(t, ServiceCenterScope{ServiceCenterID: scID}.Allows(scWarehouse))
	assert.False(t, ServiceCenterScope{ServiceCenterID: scID}.Allows(companyWarehouse))
	assert.True(t, CompanyScope{CompanyID: companyID}.Allows(scWarehouse))
	assert.True(t, CompanyScope{CompanyID: companyID}.Allows(companyWarehouse))
	assert.False(t, CompanyScope{CompanyID: uuid.New()}.Allows(companyWarehouse))
	assert.True(t, UnscopedAdmin{}.Allows(models.Warehouse{}))
}

func TestExpression(t *testing.T) {
	scID := uuid.New()
	sql, _, err := goqu.Dialect("postgres").From(goqu.T("warehouses").As("w")).
		Where(ServiceCenterScope{ServiceCenterID: scID}.Expression("w")).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, `"w"."service_center_id" =`)
}

func TestPartyFor(t *testing.T) {
	party, err := PartyFor(roles.ServiceCenterManager)
	require.NoError(t, err)
	assert.Equal(t, Requester, party)

	party, err = PartyFor(roles.PartsCoordinatorCompany)
	require.NoError(t, err)
	assert.Equal(t, Fulfiller, party)

	party, err = PartyFor(roles.Admin)
	require.NoError(t, err)
	assert.Equal(t, Fulfiller, party)

	_, err = PartyFor(roles.Role("visitor"))
	assert.Error(t, err)
}
