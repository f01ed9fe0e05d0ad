package workorder

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/access"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/apperr"
	personnel "github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/workorder/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/utilities"
)

const maxBody = 1 << 20

// Handler serves /api/work-orders and /api/requests.
type Handler struct {
	mgr    *Manager
	logger *zap.SugaredLogger
	debug  bool
}

func NewHandler(mgr *Manager, logger *zap.SugaredLogger, debug bool) *Handler {
	return &Handler{mgr: mgr, logger: logger, debug: debug}
}

// decode reads a JSON body. Anything that is not a JSON object sent as
// application/json is a validation error.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return apperr.Validation("content type must be application/json")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid id", apperr.FieldError{Field: "id", Message: "must be a positive integer"})
	}
	return id, nil
}

// clientScoped reports whether the caller only sees the orders they
// reported.
func clientScoped(user *personnel.PublicProfile) bool {
	return user != nil && user.Role.Level() <= personnel.RoleClient.Level()
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		apperr.Write(w, apperr.NotFound("work order not found"), h.debug)
		return
	case apperr.KindOf(err).Status() >= http.StatusInternalServerError:
		h.logger.Errorw(op, "err", err)
	default:
		h.logger.Debugw(op, "err", err)
	}
	apperr.Write(w, err, h.debug)
}

// List serves GET /api/work-orders.
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
	if f.TechnicianID, err = utilities.QueryID(q, "technician_id", "id_tecnico"); err != nil {
		bad = append(bad, apperr.FieldError{Field: "technician_id", Message: err.Error()})
	}
	if f.EquipmentID, err = utilities.QueryID(q, "equipment_id", "id_equipo"); err != nil {
		bad = append(bad, apperr.FieldError{Field: "equipment_id", Message: err.Error()})
	}
	if f.ReporterID, err = utilities.QueryID(q, "reporter_id", "id_quien_informa"); err != nil {
		bad = append(bad, apperr.FieldError{Field: "reporter_id", Message: err.Error()})
	}
	if s := utilities.QueryValue(q, "status", "estado"); s != "" {
		st, ok := entity.ParseStatus(s)
		if !ok {
			bad = append(bad, apperr.FieldError{Field: "status", Message: "must be one of: pending, in_progress, completed, cancelled"})
		}
		f.Status = st
	}
	if len(bad) > 0 {
		apperr.Write(w, apperr.Validation("invalid query", bad...), h.debug)
		return
	}
	f.Search = utilities.QueryValue(q, "search")
	f.DateFrom = utilities.QueryValue(q, "date_from", "fecha_desde")
	f.DateTo = utilities.QueryValue(q, "date_to", "fecha_hasta")

	if user, _ := access.ProfileFromContext(r.Context()); clientScoped(user) {
		f.ReporterID = &user.ID
	}

	res, err := h.mgr.List(r.Context(), f)
	if err != nil {
		h.fail(w, "list work orders", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": res})
}

// Get serves GET /api/work-orders/{id}. Clients only see their own orders.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apperr.Write(w, err, h.debug)
		return
	}
	o, err := h.mgr.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get work order", err)
		return
	}
	if user, _ := access.ProfileFromContext(r.Context()); clientScoped(user) && o.ReporterID != user.ID {
		h.fail(w, "get work order", ErrNotFound)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": o})
}

// Create serves POST /api/work-orders. reporter_id defaults to the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in entity.CreateInput
	if err := decode(w, r, &in); err != nil {
		apperr.Write(w, err, h.debug)
		return
	}
	if user, ok := access.ProfileFromContext(r.Context()); ok && in.ReporterID == 0 {
		in.ReporterID = user.ID
	}
	o, err := h.mgr.CreateDirect(r.Context(), in)
	if err != nil {
		h.fail(w, "create work order", err)
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    o,
		"message": "work order created",
	})
}

// Update serves PUT and PATCH /api/work-orders/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apperr.Write(w, err, h.debug)
		return
	}
	var in entity.UpdateInput
	if err := decode(w, r, &in); err != nil {
		apperr.Write(w, err, h.debug)
		return
	}
	o, err := h.mgr.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, "update work order", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    o,
		"message": "work order updated",
	})
}

// Delete serves DELETE /api/work-orders/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apperr.Write(w, err, h.debug)
		return
	}
	if err := h.mgr.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete work order", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "message": "work order deleted"})
}

// FormOptions serves GET /api/requests.
func (h *Handler) FormOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.mgr.FormOptions(r.Context())
	if err != nil {
		h.fail(w, "request form options", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": opts})
}

// Submit serves POST /api/requests. Clients always submit as themselves;
// staff may name another requester.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var in entity.RequestInput
	if err := decode(w, r, &in); err != nil {
		apperr.Write(w, err, h.debug)
		return
	}
	if user, ok := access.ProfileFromContext(r.Context()); ok {
		if in.RequesterID == 0 || clientScoped(user) {
			in.RequesterID = user.ID
		}
	}
	res, err := h.mgr.SubmitRequest(r.Context(), in)
	if err != nil {
		h.fail(w, "submit request", err)
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    res,
		"message": "request submitted as " + res.OrderNumber,
	})
}
