package roles

// Role is the role name carried in the caller's identity.
type Role string

const (
	Admin                         Role = "admin"
	EMVStaff                      Role = "emv_staff"
	PartsCoordinatorCompany       Role = "parts_coordinator_company"
	ServiceCenterManager          Role = "service_center_manager"
	ServiceCenterStaff            Role = "service_center_staff"
	ServiceCenterTechnician       Role = "service_center_technician"
	PartsCoordinatorServiceCenter Role = "parts_coordinator_service_center"
)

func (r Role) IsValid() bool {
	return r.IsServiceCenterRole() || r.IsCompanyRole() || r == Admin
}

// IsServiceCenterRole reports whether the role acts on behalf of a single
// service center.
func (r Role) IsServiceCenterRole() bool {
	switch r {
	case ServiceCenterManager, ServiceCenterStaff, ServiceCenterTechnician, PartsCoordinatorServiceCenter:
		return true
	default:
		return false
	}
}

// IsCompanyRole reports whether the role acts on behalf of the manufacturer.
func (r Role) IsCompanyRole() bool {
	return r == EMVStaff || r == PartsCoordinatorCompany
}

// HasAny is true when r is one of allowed. Admin passes every check.
func (r Role) HasAny(allowed ...Role) bool {
	if r == Admin {
		return true
	}
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
