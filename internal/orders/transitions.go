package orders

import (
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

// allowed maps each state to the states reachable from it. delivered and
// cancelled have no outgoing edges.
var allowed = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusConfirmed: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:   {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
}

// ValidateTransition checks a requested status change against the state
// machine and the actor's role. Regular users may only cancel; forward
// movement needs an elevated actor. A same-status request is reported
// separately so callers can treat it as a no-op conflict.
func ValidateTransition(current, next enums.OrderStatus, role enums.AccountRole) error {
	if !next.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": next})
	}
	if current == next {
		return pkgerrors.New(pkgerrors.CodeAlreadyInStatus, "order already in requested status").
			WithDetails(map[string]any{"status": current})
	}
	if !transitionAllowed(current, next) {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "transition not allowed").
			WithDetails(map[string]any{"from": current, "to": next})
	}
	if next != enums.OrderStatusCancelled && !role.Elevated() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only staff may move orders forward").
			WithDetails(map[string]any{"to": next})
	}
	return nil
}

func transitionAllowed(current, next enums.OrderStatus) bool {
	for _, candidate := range allowed[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
