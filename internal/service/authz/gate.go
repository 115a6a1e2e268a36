package authz

import (
	"github.com/ardiwinata/futsal-booking/internal/domain"
)

// Action identifies one gated operation.
type Action string

const (
	ActionBookingCreate   Action = "booking.create"
	ActionBookingConfirm  Action = "booking.confirm"
	ActionBookingReject   Action = "booking.reject"
	ActionBookingComplete Action = "booking.complete"
	ActionBookingCancel   Action = "booking.cancel"
	ActionPaymentRecord   Action = "payment.record"
	ActionPaymentConfirm  Action = "payment.confirm"
	ActionPaymentFail     Action = "payment.fail"
	ActionPaymentRefund   Action = "payment.refund"
	ActionTrackingView    Action = "tracking.view"
)

// minimumRole is the static per-action floor. Cancellation floors at penyewa;
// the ownership check on top of it lives with the booking service because it
// needs the loaded entity.
var minimumRole = map[Action]string{
	ActionBookingCreate:   domain.RolePenyewa,
	ActionBookingConfirm:  domain.RoleOperatorLapangan,
	ActionBookingReject:   domain.RoleOperatorLapangan,
	ActionBookingComplete: domain.RoleOperatorLapangan,
	ActionBookingCancel:   domain.RolePenyewa,
	ActionPaymentRecord:   domain.RoleStaffKasir,
	ActionPaymentConfirm:  domain.RoleStaffKasir,
	ActionPaymentFail:     domain.RoleStaffKasir,
	ActionPaymentRefund:   domain.RoleManajerFutsal,
	ActionTrackingView:    domain.RolePenyewa,
}

// Gate checks acting roles against the per-action minimum before any state
// machine guard runs. Unknown actions and unknown roles fail closed.
type Gate struct {
	hierarchy *domain.RoleHierarchy
}

func NewGate(hierarchy *domain.RoleHierarchy) *Gate {
	return &Gate{hierarchy: hierarchy}
}

// Require returns FORBIDDEN unless the actor's role satisfies the minimum role
// for action.
func (g *Gate) Require(actor domain.Actor, action Action) error {
	required, ok := minimumRole[action]
	if !ok {
		return domain.Forbidden("unknown action %q", action)
	}
	if !g.hierarchy.HasPermission(actor.Role, required) {
		return domain.Forbidden("role %q may not perform %s", actor.Role, action)
	}
	return nil
}

// RequireOwnerOr allows the owner through and otherwise demands overrideRole.
func (g *Gate) RequireOwnerOr(actor domain.Actor, ownerID int64, overrideRole string) error {
	if actor.ID == ownerID {
		return nil
	}
	if !g.hierarchy.HasPermission(actor.Role, overrideRole) {
		return domain.Forbidden("role %q may not act on another customer's booking", actor.Role)
	}
	return nil
}

// MinimumRole exposes the floor for an action, for introspection endpoints.
func (g *Gate) MinimumRole(action Action) (string, bool) {
	r, ok := minimumRole[action]
	return r, ok
}

func (g *Gate) Hierarchy() *domain.RoleHierarchy {
	return g.hierarchy
}
