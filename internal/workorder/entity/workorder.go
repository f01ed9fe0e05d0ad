package entity

import (
	"encoding/json"
	"strings"
	"time"

	equipment "github.com/ovaphlow/pitchfork/service-oneservis/internal/equipment/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/utilities"
)

// Status is the work order lifecycle state. orden_trabajo.estado keeps the
// Spanish names (see Stored).
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}
}

// NormalizeEnum folds an enum value the way the parsers read it. Inputs
// are normalized with it before validation so the oneof tags and the
// parsers agree.
func NormalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseStatus accepts API names, the American spelling of cancelled and
// the stored Spanish names.
func ParseStatus(s string) (Status, bool) {
	switch NormalizeEnum(s) {
	case "pending", "pendiente":
		return StatusPending, true
	case "in_progress", "en_proceso":
		return StatusInProgress, true
	case "completed", "completada":
		return StatusCompleted, true
	case "cancelled", "canceled", "cancelada":
		return StatusCancelled, true
	}
	return "", false
}

func (s Status) Stored() string {
	switch s {
	case StatusPending:
		return "pendiente"
	case StatusInProgress:
		return "en_proceso"
	case StatusCompleted:
		return "completada"
	case StatusCancelled:
		return "cancelada"
	}
	return string(s)
}

// StatusFromStored maps an estado value; unknown values pass through.
func StatusFromStored(s string) Status {
	if st, ok := ParseStatus(s); ok {
		return st
	}
	return Status(s)
}

// Kind is the maintenance type of a client request.
type Kind string

const (
	KindCorrective Kind = "corrective"
	KindPreventive Kind = "preventive"
)

func ParseKind(s string) (Kind, bool) {
	switch NormalizeEnum(s) {
	case "corrective", "correctivo":
		return KindCorrective, true
	case "preventive", "preventivo":
		return KindPreventive, true
	}
	return "", false
}

func (k Kind) Stored() string {
	if k == KindPreventive {
		return "preventivo"
	}
	return "correctivo"
}

// CodePrefix starts every record code of this kind.
func (k Kind) CodePrefix() string {
	if k == KindPreventive {
		return "PRE"
	}
	return "COR"
}

// RecordStatus is the initial estado of the record created for this kind.
func (k Kind) RecordStatus() string {
	if k == KindPreventive {
		return "programada"
	}
	return "pendiente"
}

// Priority is the urgency a client attaches to a request.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func ParsePriority(s string) (Priority, bool) {
	switch NormalizeEnum(s) {
	case "low", "baja":
		return PriorityLow, true
	case "medium", "media":
		return PriorityMedium, true
	case "high", "alta":
		return PriorityHigh, true
	}
	return "", false
}

// Label is the Spanish name written into record details.
func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "baja"
	case PriorityHigh:
		return "alta"
	}
	return "media"
}

// Person is the slice of a personal row shown next to an order.
type Person struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// EquipmentRef is the equipment, client and location context of an order.
type EquipmentRef struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Brand       string `json:"brand,omitempty"`
	Model       string `json:"model,omitempty"`
	Serial      string `json:"serial,omitempty"`
	ClientID    int64  `json:"client_id"`
	ClientName  string `json:"client_name"`
	LocationID  int64  `json:"location_id"`
	ServiceArea string `json:"service_area"`
	Floor       string `json:"floor,omitempty"`
}

// Record is a corrective or preventive maintenance record attached to an
// order.
type Record struct {
	ID         int64  `json:"id"`
	Kind       Kind   `json:"kind"`
	Code       string `json:"code"`
	OrderID    int64  `json:"order_id"`
	PersonID   int64  `json:"person_id"`
	Date       string `json:"date"`
	ExecutedOn string `json:"executed_on,omitempty"`
	Detail     string `json:"detail"`
	Status     string `json:"status"`
}

// WorkOrder is an orden_trabajo row. Date is YYYY-MM-DD.
type WorkOrder struct {
	ID           int64         `json:"id"`
	Date         string        `json:"date"`
	Status       Status        `json:"status"`
	Summary      string        `json:"summary"`
	ReporterID   int64         `json:"reporter_id"`
	TechnicianID *int64        `json:"technician_id"`
	EquipmentID  int64         `json:"equipment_id"`
	Reporter     *Person       `json:"reporter,omitempty"`
	Technician   *Person       `json:"technician,omitempty"`
	Equipment    *EquipmentRef `json:"equipment,omitempty"`
	Records      []Record      `json:"records,omitempty"`
}

// CreateInput is the body of POST /api/work-orders.
type CreateInput struct {
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Status       string `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled canceled pendiente en_proceso completada cancelada"`
	Summary      string `json:"summary" validate:"required,min=10"`
	ReporterID   int64  `json:"reporter_id" validate:"gt=0"`
	TechnicianID *int64 `json:"technician_id" validate:"omitnil,gt=0"`
	EquipmentID  int64  `json:"equipment_id" validate:"gt=0"`
}

// NullableID tells an absent field apart from an explicit null.
type NullableID struct {
	Set   bool
	Valid bool
	Value int64
}

func (n *NullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Valid = false
		n.Value = 0
		return nil
	}
	if err := json.Unmarshal(b, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// UpdateInput is a partial update. A technician_id of null unassigns the
// order.
type UpdateInput struct {
	Date         *string    `json:"date" validate:"omitnil,datetime=2006-01-02"`
	Status       *string    `json:"status" validate:"omitnil,oneof=pending in_progress completed cancelled canceled pendiente en_proceso completada cancelada"`
	Summary      *string    `json:"summary" validate:"omitnil,min=10"`
	TechnicianID NullableID `json:"technician_id" validate:"-"`
}

// Empty reports whether the update changes nothing.
func (u UpdateInput) Empty() bool {
	return u.Date == nil && u.Status == nil && u.Summary == nil && !u.TechnicianID.Set
}

// RequestInput is a client maintenance request (POST /api/requests).
type RequestInput struct {
	EquipmentID  int64  `json:"equipment_id" validate:"gt=0"`
	Kind         string `json:"kind" validate:"required,oneof=corrective preventive correctivo preventivo"`
	Description  string `json:"description" validate:"required,min=20"`
	Priority     string `json:"priority" validate:"required,oneof=low medium high baja media alta"`
	ContactName  string `json:"contact_name" validate:"required,min=2"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	ContactPhone string `json:"contact_phone" validate:"omitempty,max=32"`
	Notes        string `json:"notes" validate:"omitempty,max=2000"`
	RequesterID  int64  `json:"requester_id" validate:"gt=0"`
}

// ListFilter narrows GET /api/work-orders. Dates are YYYY-MM-DD, both ends
// inclusive.
type ListFilter struct {
	Page         int
	Limit        int
	Search       string
	Status       Status
	TechnicianID *int64
	EquipmentID  *int64
	ReporterID   *int64
	DateFrom     string
	DateTo       string
}

// EquipmentOption is one entry of the equipment filter.
type EquipmentOption struct {
	ID         int64  `json:"id"`
	Type       string `json:"type"`
	Serial     string `json:"serial,omitempty"`
	ClientName string `json:"client_name"`
}

// FilterOptions are the values the list filters can take.
type FilterOptions struct {
	Equipment   []EquipmentOption `json:"equipment"`
	Technicians []Person          `json:"technicians"`
	Statuses    []Status          `json:"statuses"`
}

type ListResult struct {
	Orders     []WorkOrder          `json:"orders"`
	Pagination utilities.Pagination `json:"pagination"`
	Filters    FilterOptions        `json:"filters"`
}

// SubmitResult is returned when a request has been turned into an order.
type SubmitResult struct {
	OrderNumber   string     `json:"order_number"`
	RequestNumber string     `json:"request_number"`
	RecordNumber  string     `json:"record_number"`
	Kind          Kind       `json:"kind"`
	Priority      Priority   `json:"priority"`
	Order         *WorkOrder `json:"order"`
}

// FormOptions feeds the request intake form.
type FormOptions struct {
	EquipmentByLocation []equipment.LocationGroup `json:"equipment_by_location"`
	Locations           []equipment.Location      `json:"locations"`
	Kinds               []Kind                    `json:"kinds"`
	Priorities          []Priority                `json:"priorities"`
}

// ParseDate reads a YYYY-MM-DD day as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

const DateLayout = "2006-01-02"
