package middleware

import (
	"net/http"
	"strings"

	"github.com/estoque-mci/estoque-api/api/responses"
	pkgerrors "github.com/estoque-mci/estoque-api/pkg/errors"
	"github.com/estoque-mci/estoque-api/pkg/logger"
)

// RequirePrivileged gates mutation pages behind the master user list. The
// list is a static configuration value, matched case-insensitively by email.
func RequirePrivileged(masterEmails []string, logg *logger.Logger) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(masterEmails))
	for _, email := range masterEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			allowed[email] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := strings.ToLower(UserEmailFromContext(r.Context()))
			if _, ok := allowed[email]; !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "acesso restrito a usuários master"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
