package personnel

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/access"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/session"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/utilities"
)

// Handler exposes the login endpoints: POST logs in, GET checks the
// current session, DELETE logs out.
type Handler struct {
	svc    *Service
	codec  *session.Codec
	logger *zap.SugaredLogger
	debug  bool
}

func NewHandler(svc *Service, codec *session.Codec, logger *zap.SugaredLogger, debug bool) *Handler {
	return &Handler{svc: svc, codec: codec, logger: logger, debug: debug}
}

// LoginRequest login payload. correo is accepted for older clients.
type LoginRequest struct {
	Email    string `json:"email"`
	Correo   string `json:"correo"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success  bool                  `json:"success"`
	User     *entity.PublicProfile `json:"user"`
	Token    string                `json:"token,omitempty"`
	Redirect string                `json:"redirect"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		apperr.Write(w, apperr.Validation("invalid payload"), h.debug)
		return
	}
	email := req.Email
	if email == "" {
		email = req.Correo
	}
	if email == "" || req.Password == "" {
		apperr.Write(w, apperr.Validation("email and password are required"), h.debug)
		return
	}

	profile, err := h.svc.Authenticate(r.Context(), email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrInactive), errors.Is(err, ErrBadCredentials):
			// one answer for all three, avoid user enumeration
			h.logger.Debugw("login failed", "reason", err)
			apperr.Write(w, apperr.Unauthorized("invalid credentials"), h.debug)
		default:
			h.logger.Errorw("login failed", "err", err)
			apperr.Write(w, err, h.debug)
		}
		return
	}

	token, err := h.codec.Issue(*profile)
	if err != nil {
		h.logger.Errorw("issue session token", "err", err)
		apperr.Write(w, apperr.Internal("issue session", err), h.debug)
		return
	}
	h.codec.SetCookie(w, token)
	h.logger.Infow("login", "user_id", profile.ID, "role", profile.Role)
	utilities.WriteJSON(w, http.StatusOK, loginResponse{
		Success:  true,
		User:     profile,
		Token:    token,
		Redirect: access.LandingPathFor(profile.Role),
	})
}

// Session answers whether the caller holds a valid session and returns the
// freshly loaded profile.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	claimed, err := h.codec.Verify(session.TokenFromRequest(r))
	if err != nil {
		apperr.Write(w, apperr.Unauthorized("not authenticated"), h.debug)
		return
	}
	profile, err := h.svc.Profile(r.Context(), claimed.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInactive) {
			h.codec.ClearCookie(w)
			apperr.Write(w, apperr.Unauthorized("not authenticated"), h.debug)
			return
		}
		h.logger.Errorw("session check failed", "err", err)
		apperr.Write(w, err, h.debug)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, loginResponse{
		Success:  true,
		User:     profile,
		Redirect: access.LandingPathFor(profile.Role),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.codec.ClearCookie(w)
	utilities.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "message": "logged out"})
}
