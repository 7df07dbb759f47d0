package orders

import (
	"testing"

	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
)

func TestValidateTransition(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		from, to enums.OrderStatus
		role     enums.AccountRole
		wantCode pkgerrors.Code
	}{
		{"staff ships confirmed", enums.OrderStatusConfirmed, enums.OrderStatusShipped, enums.AccountRoleStaff, ""},
		{"admin delivers shipped", enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.AccountRoleAdmin, ""},
		{"user cancels confirmed", enums.OrderStatusConfirmed, enums.OrderStatusCancelled, enums.AccountRoleUser, ""},
		{"user cancels shipped", enums.OrderStatusShipped, enums.OrderStatusCancelled, enums.AccountRoleUser, ""},
		{"user cannot ship", enums.OrderStatusConfirmed, enums.OrderStatusShipped, enums.AccountRoleUser, pkgerrors.CodeForbidden},
		{"user cannot deliver", enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.AccountRoleUser, pkgerrors.CodeForbidden},
		{"skip ship step", enums.OrderStatusConfirmed, enums.OrderStatusDelivered, enums.AccountRoleAdmin, pkgerrors.CodeInvalidTransition},
		{"delivered is terminal", enums.OrderStatusDelivered, enums.OrderStatusCancelled, enums.AccountRoleAdmin, pkgerrors.CodeInvalidTransition},
		{"cancelled is terminal", enums.OrderStatusCancelled, enums.OrderStatusShipped, enums.AccountRoleAdmin, pkgerrors.CodeInvalidTransition},
		{"no backward move", enums.OrderStatusShipped, enums.OrderStatusConfirmed, enums.AccountRoleAdmin, pkgerrors.CodeInvalidTransition},
		{"same status", enums.OrderStatusShipped, enums.OrderStatusShipped, enums.AccountRoleAdmin, pkgerrors.CodeAlreadyInStatus},
		{"unknown status", enums.OrderStatusConfirmed, enums.OrderStatus("mailed"), enums.AccountRoleAdmin, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTransition(tc.from, tc.to, tc.role)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected err: %v", err)
				}
				return
			}
			if !pkgerrors.HasCode(err, tc.wantCode) {
				t.Fatalf("err = %v, want code %s", err, tc.wantCode)
			}
		})
	}
}
