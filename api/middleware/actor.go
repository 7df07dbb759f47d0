package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint-backend/api/responses"
	"github.com/tillpoint/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillpoint/tillpoint-backend/pkg/errors"
	"github.com/tillpoint/tillpoint-backend/pkg/logger"
)

const (
	actorIDHeader   = "X-Actor-Id"
	actorRoleHeader = "X-Actor-Role"
)

// Actor resolves the acting account from the identity headers the edge
// gateway stamps after authenticating the request. Requests arriving
// without them are rejected; this service never sees raw credentials.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			accountID, err := uuid.Parse(strings.TrimSpace(r.Header.Get(actorIDHeader)))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing or invalid actor id"))
				return
			}
			role, err := enums.ParseAccountRole(strings.TrimSpace(r.Header.Get(actorRoleHeader)))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing or invalid actor role"))
				return
			}

			ctx = WithAccountID(ctx, accountID)
			ctx = WithRole(ctx, role)
			if logg != nil {
				ctx = logg.WithAccountID(ctx, accountID.String())
				ctx = logg.WithActorRole(ctx, string(role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireElevated rejects requests whose actor is not staff or admin.
func RequireElevated(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !RoleFromContext(r.Context()).Elevated() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "staff access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
