package middleware

import (
	"context"
	"net/http"
	"strings"

	"staffcore/internal/domain/access"
	"staffcore/internal/transport/http/api"
)

// Gate answers whether an admin may perform the named actions on a route.
type Gate interface {
	Authorize(ctx context.Context, adminID, role, routeName string, actions []string, mode access.MatchMode) (bool, error)
}

// IncidentReporter records denied attempts for security review.
type IncidentReporter interface {
	Incident(ctx context.Context, severity, description, adminID string)
}

// Guard bundles the authorization gate with incident reporting so route
// declarations stay one-liners.
type Guard struct {
	Gate      Gate
	Incidents IncidentReporter
}

// RequireAction authorizes the request against an explicit route name and
// action set. The route name is declared at wiring time rather than
// derived from the request path, so renaming a URL never silently changes
// which grants apply.
func (g *Guard) RequireAction(routeName string, mode access.MatchMode, actions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, ok := GetAdmin(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}

			allowed, err := g.Gate.Authorize(r.Context(), admin.AdminID, admin.Role, routeName, actions, mode)
			if err != nil {
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", GetRequestID(r.Context()))
				return
			}
			if !allowed {
				if g.Incidents != nil {
					desc := "denied " + strings.Join(actions, ",") + " on " + routeName
					g.Incidents.Incident(r.Context(), "Medium", desc, admin.AdminID)
				}
				api.Forbidden(w, "insufficient permissions", GetRequestID(r.Context()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireMFA rejects callers whose token was not issued through a TOTP
// verified login.
func (g *Guard) RequireMFA() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, ok := GetAdmin(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			if !admin.MFAVerified {
				api.Forbidden(w, "two-factor verification required", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects unauthenticated requests without consulting grants.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetAdmin(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
