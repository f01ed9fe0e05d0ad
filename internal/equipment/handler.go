package equipment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/equipment/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/utilities"
)

// Handler contains dependencies for handling equipment endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
	debug  bool
}

// NewHandler constructs a new Handler.
func NewHandler(svc *Service, logger *zap.SugaredLogger, debug bool) *Handler {
	return &Handler{svc: svc, logger: logger, debug: debug}
}

// List serves GET /api/equipment. Spanish parameter names from the old
// portal (id_cliente, id_ubicacion, tipo_equipo, marca) are accepted too.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f entity.ListFilter
	var err error
	var bad []apperr.FieldError
	if f.Page, err = utilities.QueryInt(q, 1, "page"); err != nil {
		bad = append(bad, apperr.FieldError{Field: "page", Message: err.Error()})
	}
	if f.Limit, err = utilities.QueryInt(q, utilities.DefaultPageSize, "limit"); err != nil {
		bad = append(bad, apperr.FieldError{Field: "limit", Message: err.Error()})
	}
	if f.ClientID, err = utilities.QueryID(q, "client_id", "id_cliente"); err != nil {
		bad = append(bad, apperr.FieldError{Field: "client_id", Message: err.Error()})
	}
	if f.LocationID, err = utilities.QueryID(q, "location_id", "id_ubicacion"); err != nil {
		bad = append(bad, apperr.FieldError{Field: "location_id", Message: err.Error()})
	}
	if len(bad) > 0 {
		apperr.Write(w, apperr.Validation("invalid query", bad...), h.debug)
		return
	}
	f.Search = utilities.QueryValue(q, "search")
	f.Type = utilities.QueryValue(q, "type", "tipo_equipo")
	f.Brand = utilities.QueryValue(q, "brand", "marca")

	res, err := h.svc.List(r.Context(), f)
	if err != nil {
		h.logger.Errorw("list equipment", "err", err)
		apperr.Write(w, err, h.debug)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": res})
}

// Get serves GET /api/equipment/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		apperr.Write(w, apperr.Validation("invalid id", apperr.FieldError{Field: "id", Message: "must be a positive integer"}), h.debug)
		return
	}
	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			apperr.Write(w, apperr.NotFound("equipment not found"), h.debug)
			return
		}
		h.logger.Errorw("get equipment", "id", id, "err", err)
		apperr.Write(w, err, h.debug)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": e})
}
