package identity

import (
	"net/http"
	"strings"

	"github.com/forkpoint/forkpoint-backend/pkg/errors"
	"github.com/forkpoint/forkpoint-backend/pkg/httputil"
)

// Middleware extracts the staff identity from the Authorization header and
// attaches it to the request context. Requests without a valid token are
// rejected; health checks are exempt.
func Middleware(verifier *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				httputil.Error(w, errors.IdentityRequired())
				return
			}

			staff, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				httputil.Error(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithStaff(r.Context(), staff)))
		})
	}
}
