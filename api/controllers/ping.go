package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint-backend/api/middleware"
	"github.com/tillpoint/tillpoint-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if id := middleware.AccountIDFromContext(r.Context()); id != uuid.Nil {
			payload["account_id"] = id.String()
		}
		if role := middleware.RoleFromContext(r.Context()); role != "" {
			payload["role"] = string(role)
		}
		responses.WriteSuccess(w, payload)
	}
}
