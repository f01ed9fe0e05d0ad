package dashboard

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/access"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/utilities"
)

// Handler serves the page routes. Pages render no HTML: each returns the
// JSON view model a front end needs, or a redirect.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
	debug  bool
}

func NewHandler(svc *Service, logger *zap.SugaredLogger, debug bool) *Handler {
	return &Handler{svc: svc, logger: logger, debug: debug}
}

// Root sends signed-in users to their landing page and everyone else to
// the login page.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if user, ok := access.ProfileFromContext(r.Context()); ok {
		http.Redirect(w, r, access.LandingPathFor(user.Role), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, access.PathLogin, http.StatusSeeOther)
}

// Login describes the login API, or redirects when already signed in.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if user, ok := access.ProfileFromContext(r.Context()); ok {
		http.Redirect(w, r, access.LandingPathFor(user.Role), http.StatusSeeOther)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"page":    "login",
		"login": map[string]any{
			"method": http.MethodPost,
			"path":   "/api/auth/login",
			"fields": []string{"email", "password"},
		},
	})
}

// Dashboard is the generic landing page for any signed-in user.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := access.ProfileFromContext(r.Context())
	utilities.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"page":    "dashboard",
		"user":    user,
		"landing": access.LandingPathFor(user.Role),
	})
}

func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	user, _ := access.ProfileFromContext(r.Context())
	stats, err := h.svc.AdminStats(r.Context())
	if err != nil {
		h.logger.Errorw("admin dashboard", "err", err)
		apperr.Write(w, err, h.debug)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "page": "admin", "user": user, "data": stats})
}

func (h *Handler) Technician(w http.ResponseWriter, r *http.Request) {
	user, _ := access.ProfileFromContext(r.Context())
	board, err := h.svc.Assigned(r.Context(), user.ID)
	if err != nil {
		h.logger.Errorw("technician dashboard", "user_id", user.ID, "err", err)
		apperr.Write(w, err, h.debug)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "page": "technician", "user": user, "data": board})
}

func (h *Handler) Client(w http.ResponseWriter, r *http.Request) {
	user, _ := access.ProfileFromContext(r.Context())
	board, err := h.svc.Reported(r.Context(), user.ID)
	if err != nil {
		h.logger.Errorw("client dashboard", "user_id", user.ID, "err", err)
		apperr.Write(w, err, h.debug)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "page": "client", "user": user, "data": board})
}
