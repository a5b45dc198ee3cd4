package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Groups(t *testing.T) {
	tests := []struct {
		role          Role
		serviceCenter bool
		company       bool
		valid         bool
	}{
		{ServiceCenterManager, true, false, true},
		{ServiceCenterTechnician, true, false, true},
		{PartsCoordinatorServiceCenter, true, false, true},
		{PartsCoordinatorCompany, false, true, true},
		{EMVStaff, false, true, true},
		{Admin, false, false, true},
		{Role("guest"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			assert.Equal(t, tt.serviceCenter, tt.role.IsServiceCenterRole())
			assert.Equal(t, tt.company, tt.role.IsCompanyRole())
			assert.Equal(t, tt.valid, tt.role.IsValid())
		})
	}
}

func TestRole_HasAny(t *testing.T) {
	assert.True(t, Admin.HasAny(ServiceCenterManager))
	assert.True(t, ServiceCenterStaff.HasAny(ServiceCenterManager, ServiceCenterStaff))
	assert.False(t, ServiceCenterTechnician.HasAny(ServiceCenterManager, PartsCoordinatorCompany))
}
