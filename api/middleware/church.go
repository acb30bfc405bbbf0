package middleware

import (
	"net/http"

	"github.com/churchconnect/churchconnect-backend/api/responses"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
)

// ChurchContext rejects requests whose token carries no tenant. Super
// admin tokens have platform scope and never pass this guard; the
// console routes are mounted separately.
func ChurchContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ChurchIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "church context missing"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
