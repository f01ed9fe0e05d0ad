package access

import (
	"net/http"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/utilities"
)

// Landing paths per role.
const (
	PathAdmin      = "/admin"
	PathTechnician = "/technician"
	PathClient     = "/client"
	PathDashboard  = "/dashboard"
	PathLogin      = "/login"
)

// LandingPathFor maps a role to its home page; unknown roles land on the
// generic dashboard.
func LandingPathFor(role entity.Role) string {
	switch role {
	case entity.RoleAdmin:
		return PathAdmin
	case entity.RoleTechnician:
		return PathTechnician
	case entity.RoleClient:
		return PathClient
	}
	return PathDashboard
}

// Authorize is hierarchical: a user passes when their level reaches at
// least one of the required levels. No required roles means no access.
func Authorize(user *entity.PublicProfile, required ...entity.Role) bool {
	if user == nil {
		return false
	}
	lvl := user.Role.Level()
	for _, r := range required {
		if lvl >= r.Level() {
			return true
		}
	}
	return false
}

// RequireRole gates a route. Pages send unauthorized users to their own
// landing path; API routes answer 403 with the same path as a hint.
func RequireRole(required ...entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := ProfileFromContext(r.Context())
			if !ok {
				reject(w, r)
				return
			}
			if !Authorize(user, required...) {
				landing := LandingPathFor(user.Role)
				if utilities.IsAPIPath(r.URL.Path) {
					utilities.WriteJSON(w, http.StatusForbidden, map[string]any{
						"success":  false,
						"error":    "forbidden",
						"redirect": landing,
					})
					return
				}
				http.Redirect(w, r, landing, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// reject answers an unauthenticated request: JSON 401 on the API, a
// redirect to the login page everywhere else.
func reject(w http.ResponseWriter, r *http.Request) {
	if utilities.IsAPIPath(r.URL.Path) {
		utilities.WriteJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "unauthorized"})
		return
	}
	http.Redirect(w, r, PathLogin, http.StatusSeeOther)
}
