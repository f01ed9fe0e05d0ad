package workorder

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/equipment"
	eqentity "github.com/ovaphlow/pitchfork/service-oneservis/internal/equipment/entity"
	personnel "github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel/entity"
	personrepo "github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel/repo"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/workorder/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/workorder/repo"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/utilities"
)

var ErrNotFound = errors.New("work order not found")

// Manager owns the work order lifecycle: direct creation, updates,
// deletion, listing and the conversion of client requests into orders.
type Manager struct {
	db        *sqlx.DB
	orders    *repo.OrderRepo
	people    *personrepo.PersonRepo
	equipment *equipment.Service
	logger    *zap.SugaredLogger
	now       func() time.Time
	suffix    func() int
}

type Option func(*Manager)

// WithClock replaces time.Now for dates and record codes.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithCodeSuffix replaces the random three digit suffix of record codes.
func WithCodeSuffix(fn func() int) Option {
	return func(m *Manager) { m.suffix = fn }
}

func NewManager(db *sqlx.DB, equip *equipment.Service, logger *zap.SugaredLogger, opts ...Option) *Manager {
	if equip == nil {
		equip = equipment.NewService(db)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	m := &Manager{
		db:        db,
		orders:    repo.NewOrderRepo(db),
		people:    personrepo.NewPersonRepo(db),
		equipment: equip,
		logger:    logger,
		now:       time.Now,
		suffix:    func() int { return rand.Intn(1000) },
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) today() time.Time {
	t := m.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Get returns an order with its people, equipment and maintenance records.
func (m *Manager) Get(ctx context.Context, id int64) (*entity.WorkOrder, error) {
	o, err := m.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.Storage("get work order", err)
	}
	if o.Records, err = m.orders.RecordsFor(ctx, id); err != nil {
		return nil, apperr.Storage("list maintenance records", err)
	}
	return o, nil
}

// checkEquipment turns a missing equipo row into a field error.
func (m *Manager) checkEquipment(ctx context.Context, id int64, field string) (*eqentity.Equipment, *apperr.FieldError, error) {
	e, err := m.equipment.Get(ctx, id)
	if err != nil {
		if errors.Is(err, equipment.ErrNotFound) {
			return nil, &apperr.FieldError{Field: field, Message: "equipment not found"}, nil
		}
		return nil, nil, err
	}
	return e, nil, nil
}

func (m *Manager) checkPerson(ctx context.Context, id int64, field string) (*personnel.Person, *apperr.FieldError, error) {
	p, err := m.people.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperr.FieldError{Field: field, Message: "person not found"}, nil
		}
		return nil, nil, apperr.Storage("get person", err)
	}
	return p, nil, nil
}

// checkTechnician requires id to reference a person with the technician
// role.
func (m *Manager) checkTechnician(ctx context.Context, id int64) (*apperr.FieldError, error) {
	p, fe, err := m.checkPerson(ctx, id, "technician_id")
	if err != nil || fe != nil {
		return fe, err
	}
	if p.Role != personnel.RoleTechnician {
		return &apperr.FieldError{Field: "technician_id", Message: "must reference a technician"}, nil
	}
	return nil, nil
}

// CreateDirect inserts an order on behalf of staff. Equipment, reporter
// and technician must exist; the technician must hold the technician role.
func (m *Manager) CreateDirect(ctx context.Context, in entity.CreateInput) (*entity.WorkOrder, error) {
	in.Summary = strings.TrimSpace(in.Summary)
	in.Date = strings.TrimSpace(in.Date)
	in.Status = entity.NormalizeEnum(in.Status)
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	status := entity.StatusPending
	if in.Status != "" {
		status, _ = entity.ParseStatus(in.Status)
	}
	date, err := entity.ParseDate(in.Date)
	if err != nil {
		return nil, apperr.Validation("invalid input", apperr.FieldError{Field: "date", Message: "must be a date in 2006-01-02 format"})
	}

	var bad []apperr.FieldError
	_, fe, err := m.checkEquipment(ctx, in.EquipmentID, "equipment_id")
	if err != nil {
		return nil, err
	}
	if fe != nil {
		bad = append(bad, *fe)
	}
	_, fe, err = m.checkPerson(ctx, in.ReporterID, "reporter_id")
	if err != nil {
		return nil, err
	}
	if fe != nil {
		bad = append(bad, *fe)
	}
	if in.TechnicianID != nil {
		if fe, err = m.checkTechnician(ctx, *in.TechnicianID); err != nil {
			return nil, err
		}
		if fe != nil {
			bad = append(bad, *fe)
		}
	}
	if len(bad) > 0 {
		return nil, apperr.Validation("invalid input", bad...)
	}

	id, err := m.orders.Insert(ctx, repo.NewOrder{
		Date:         date,
		Status:       status,
		Summary:      in.Summary,
		ReporterID:   in.ReporterID,
		TechnicianID: in.TechnicianID,
		EquipmentID:  in.EquipmentID,
	})
	if err != nil {
		return nil, apperr.Storage("insert work order", err)
	}
	m.logger.Infow("work order created", "id", id, "status", status, "equipment_id", in.EquipmentID)
	return m.Get(ctx, id)
}

// Update applies a partial update. Unknown ids give ErrNotFound; an
// update that sets nothing is rejected.
func (m *Manager) Update(ctx context.Context, id int64, in entity.UpdateInput) (*entity.WorkOrder, error) {
	if in.Summary != nil {
		s := strings.TrimSpace(*in.Summary)
		in.Summary = &s
	}
	if in.Status != nil {
		st := entity.NormalizeEnum(*in.Status)
		in.Status = &st
	}
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	if in.TechnicianID.Valid && in.TechnicianID.Value <= 0 {
		return nil, apperr.Validation("invalid input", apperr.FieldError{Field: "technician_id", Message: "must be greater than 0"})
	}

	ok, err := m.orders.Exists(ctx, id)
	if err != nil {
		return nil, apperr.Storage("find work order", err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	var p repo.Patch
	if in.TechnicianID.Set {
		if in.TechnicianID.Valid {
			fe, err := m.checkTechnician(ctx, in.TechnicianID.Value)
			if err != nil {
				return nil, err
			}
			if fe != nil {
				return nil, apperr.Validation("invalid input", *fe)
			}
			tid := in.TechnicianID.Value
			p.TechnicianID = &tid
		} else {
			p.ClearTechnician = true
		}
	}
	if in.Empty() {
		return nil, apperr.Validation("no fields to update")
	}
	if in.Date != nil {
		d, err := entity.ParseDate(*in.Date)
		if err != nil {
			return nil, apperr.Validation("invalid input", apperr.FieldError{Field: "date", Message: "must be a date in 2006-01-02 format"})
		}
		p.Date = &d
	}
	if in.Status != nil {
		st, _ := entity.ParseStatus(*in.Status)
		p.Status = &st
	}
	p.Summary = in.Summary

	if _, err := m.orders.Update(ctx, id, p); err != nil {
		return nil, apperr.Storage("update work order", err)
	}
	m.logger.Infow("work order updated", "id", id)
	return m.Get(ctx, id)
}

// Delete removes an order and its maintenance records atomically.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	ok, err := m.orders.Exists(ctx, id)
	if err != nil {
		return apperr.Storage("find work order", err)
	}
	if !ok {
		return ErrNotFound
	}
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Storage("begin delete", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := m.orders.WithTx(tx).DeleteCascade(ctx, id); err != nil {
		return apperr.Storage("delete work order", err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Storage("commit delete", err)
	}
	m.logger.Infow("work order deleted", "id", id)
	return nil
}

// List returns one page of orders with the filter options.
func (m *Manager) List(ctx context.Context, f entity.ListFilter) (*entity.ListResult, error) {
	var bad []apperr.FieldError
	if f.DateFrom != "" {
		if _, err := entity.ParseDate(f.DateFrom); err != nil {
			bad = append(bad, apperr.FieldError{Field: "date_from", Message: "must be a date in 2006-01-02 format"})
		}
	}
	if f.DateTo != "" {
		if _, err := entity.ParseDate(f.DateTo); err != nil {
			bad = append(bad, apperr.FieldError{Field: "date_to", Message: "must be a date in 2006-01-02 format"})
		}
	}
	if len(bad) > 0 {
		return nil, apperr.Validation("invalid query", bad...)
	}

	page, limit, offset := utilities.NormalizePage(f.Page, f.Limit)
	orders, err := m.orders.List(ctx, f, limit, offset)
	if err != nil {
		return nil, apperr.Storage("list work orders", err)
	}
	total, err := m.orders.Count(ctx, f)
	if err != nil {
		return nil, apperr.Storage("count work orders", err)
	}
	opts, err := m.orders.FilterOptions(ctx)
	if err != nil {
		return nil, apperr.Storage("load filter options", err)
	}
	return &entity.ListResult{
		Orders:     orders,
		Pagination: utilities.NewPagination(page, limit, total),
		Filters:    *opts,
	}, nil
}

// SubmitRequest turns a client request into a pending order plus one
// maintenance record of the requested kind. Both rows are written in one
// transaction; nothing is written when validation fails.
func (m *Manager) SubmitRequest(ctx context.Context, in entity.RequestInput) (*entity.SubmitResult, error) {
	in.Description = strings.TrimSpace(in.Description)
	in.ContactName = strings.TrimSpace(in.ContactName)
	in.ContactEmail = strings.TrimSpace(in.ContactEmail)
	in.ContactPhone = strings.TrimSpace(in.ContactPhone)
	in.Notes = strings.TrimSpace(in.Notes)
	in.Kind = entity.NormalizeEnum(in.Kind)
	in.Priority = entity.NormalizeEnum(in.Priority)
	if err := apperr.Check(in); err != nil {
		return nil, err
	}
	kind, _ := entity.ParseKind(in.Kind)
	priority, _ := entity.ParsePriority(in.Priority)

	var bad []apperr.FieldError
	equip, fe, err := m.checkEquipment(ctx, in.EquipmentID, "equipment_id")
	if err != nil {
		return nil, err
	}
	if fe != nil {
		bad = append(bad, *fe)
	}
	_, fe, err = m.checkPerson(ctx, in.RequesterID, "requester_id")
	if err != nil {
		return nil, err
	}
	if fe != nil {
		bad = append(bad, *fe)
	}
	if len(bad) > 0 {
		return nil, apperr.Validation("invalid input", bad...)
	}

	now := m.now()
	today := m.today()
	code := RecordCode(kind, now, m.suffix())

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Storage("begin request", err)
	}
	defer func() { _ = tx.Rollback() }()
	orders := m.orders.WithTx(tx)
	orderID, err := orders.Insert(ctx, repo.NewOrder{
		Date:        today,
		Status:      entity.StatusPending,
		Summary:     Summary(kind, in.Description, equip),
		ReporterID:  in.RequesterID,
		EquipmentID: in.EquipmentID,
	})
	if err != nil {
		return nil, apperr.Storage("insert work order", err)
	}
	if _, err := orders.InsertRecord(ctx, repo.NewRecord{
		Kind:        kind,
		Code:        code,
		OrderID:     orderID,
		EquipmentID: in.EquipmentID,
		PersonID:    in.RequesterID,
		Date:        today,
		Detail:      Detail(kind, priority, in),
		Status:      kind.RecordStatus(),
	}); err != nil {
		return nil, apperr.Storage("insert maintenance record", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Storage("commit request", err)
	}
	m.logger.Infow("maintenance request submitted", "order_id", orderID, "code", code, "kind", kind, "priority", priority)

	order, err := m.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &entity.SubmitResult{
		OrderNumber:   OrderNumber(orderID),
		RequestNumber: RequestNumber(orderID),
		RecordNumber:  code,
		Kind:          kind,
		Priority:      priority,
		Order:         order,
	}, nil
}

// FormOptions returns what the request form needs to render.
func (m *Manager) FormOptions(ctx context.Context) (*entity.FormOptions, error) {
	groups, locations, err := m.equipment.ByLocation(ctx)
	if err != nil {
		return nil, err
	}
	return &entity.FormOptions{
		EquipmentByLocation: groups,
		Locations:           locations,
		Kinds:               []entity.Kind{entity.KindCorrective, entity.KindPreventive},
		Priorities:          []entity.Priority{entity.PriorityLow, entity.PriorityMedium, entity.PriorityHigh},
	}, nil
}

// StatusCounts counts orders matching f per status.
func (m *Manager) StatusCounts(ctx context.Context, f entity.ListFilter) (map[entity.Status]int, error) {
	counts, err := m.orders.StatusCounts(ctx, f)
	if err != nil {
		return nil, apperr.Storage("count work orders by status", err)
	}
	return counts, nil
}

// Recent returns the n newest orders matching f.
func (m *Manager) Recent(ctx context.Context, f entity.ListFilter, n int) ([]entity.WorkOrder, error) {
	orders, err := m.orders.List(ctx, f, n, 0)
	if err != nil {
		return nil, apperr.Storage("list recent work orders", err)
	}
	return orders, nil
}

// Count counts orders matching f.
func (m *Manager) Count(ctx context.Context, f entity.ListFilter) (int, error) {
	n, err := m.orders.Count(ctx, f)
	if err != nil {
		return 0, apperr.Storage("count work orders", err)
	}
	return n, nil
}

// Backlog reports corrective records still pending and preventive records
// past their scheduled date.
func (m *Manager) Backlog(ctx context.Context) (pendingCorrective, overduePreventive int, err error) {
	if pendingCorrective, err = m.orders.PendingCorrectives(ctx); err != nil {
		return 0, 0, apperr.Storage("count pending correctives", err)
	}
	if overduePreventive, err = m.orders.OverduePreventives(ctx, m.today()); err != nil {
		return 0, 0, apperr.Storage("count overdue preventives", err)
	}
	return pendingCorrective, overduePreventive, nil
}

// Today is the current UTC day; dashboards use it for month boundaries.
func (m *Manager) Today() time.Time { return m.today() }
