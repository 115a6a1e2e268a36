package domain

// Role is an immutable value in the six-level hierarchy. Levels are strictly
// increasing and unique.
type Role struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Level       int    `json:"level"`
	Description string `json:"description"`
}

const (
	RolePengunjung       = "pengunjung"
	RolePenyewa          = "penyewa"
	RoleStaffKasir       = "staff_kasir"
	RoleOperatorLapangan = "operator_lapangan"
	RoleManajerFutsal    = "manajer_futsal"
	RoleSupervisorSistem = "supervisor_sistem"
)

// DefaultRoles returns the platform role table, ascending by level.
func DefaultRoles() []Role {
	return []Role{
		{Value: RolePengunjung, Label: "Pengunjung", Level: 1, Description: "Guest, read-only access to public field listings"},
		{Value: RolePenyewa, Label: "Penyewa", Level: 2, Description: "Customer, reserves fields and cancels own bookings"},
		{Value: RoleStaffKasir, Label: "Staff Kasir", Level: 3, Description: "Cashier, records and confirms payments"},
		{Value: RoleOperatorLapangan, Label: "Operator Lapangan", Level: 4, Description: "Field operator, confirms and completes bookings"},
		{Value: RoleManajerFutsal, Label: "Manajer Futsal", Level: 5, Description: "Manager, oversees operations and approves refunds"},
		{Value: RoleSupervisorSistem, Label: "Supervisor Sistem", Level: 6, Description: "System supervisor, full administrative access"},
	}
}

// RoleHierarchy answers role-level questions over an immutable table built once
// at startup.
type RoleHierarchy struct {
	roles   []Role
	byValue map[string]Role
}

func NewRoleHierarchy(roles []Role) *RoleHierarchy {
	h := &RoleHierarchy{
		roles:   make([]Role, len(roles)),
		byValue: make(map[string]Role, len(roles)),
	}
	copy(h.roles, roles)
	for _, r := range roles {
		h.byValue[r.Value] = r
	}
	return h
}

// All returns every role ascending by level.
func (h *RoleHierarchy) All() []Role {
	out := make([]Role, len(h.roles))
	copy(out, h.roles)
	return out
}

func (h *RoleHierarchy) ByValue(value string) (Role, bool) {
	r, ok := h.byValue[value]
	return r, ok
}

// HasPermission reports whether userRole may act where requiredRole is the
// minimum. Unknown roles on either side fail closed.
func (h *RoleHierarchy) HasPermission(userRole, requiredRole string) bool {
	ur, ok := h.byValue[userRole]
	if !ok {
		return false
	}
	rr, ok := h.byValue[requiredRole]
	if !ok {
		return false
	}
	return ur.Level >= rr.Level
}

// ManageableRoles returns every role strictly below the caller's level.
func (h *RoleHierarchy) ManageableRoles(userRole string) []Role {
	ur, ok := h.byValue[userRole]
	if !ok {
		return nil
	}
	managed := make([]Role, 0, len(h.roles))
	for _, r := range h.roles {
		if r.Level < ur.Level {
			managed = append(managed, r)
		}
	}
	return managed
}

// Actor is the authenticated identity performing an operation. The role value
// is supplied by the identity collaborator and trusted as-is.
type Actor struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}
