// Package dashboard builds the per-role landing pages: admin statistics,
// the technician's assigned work and the client's own requests.
package dashboard

import (
	"context"
	"time"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/equipment"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/workorder"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/workorder/entity"
)

const recentOrders = 5

// AdminStats are the figures on the admin landing page. CompletedThisMonth
// counts completed orders dated in the current month.
type AdminStats struct {
	Equipment          int `json:"equipment"`
	Clients            int `json:"clients"`
	ActivePersonnel    int `json:"active_personnel"`
	PendingOrders      int `json:"pending_orders"`
	CompletedThisMonth int `json:"completed_this_month"`
	PendingCorrective  int `json:"pending_corrective"`
	OverduePreventive  int `json:"overdue_preventive"`
}

// Board is a per-user view of orders: counts per status and the newest
// ones.
type Board struct {
	Counts map[entity.Status]int `json:"counts"`
	Total  int                   `json:"total"`
	Recent []entity.WorkOrder    `json:"recent"`
}

type Service struct {
	orders    *workorder.Manager
	equipment *equipment.Service
	people    *personnel.Service
}

func NewService(orders *workorder.Manager, equip *equipment.Service, people *personnel.Service) *Service {
	return &Service{orders: orders, equipment: equip, people: people}
}

func (s *Service) AdminStats(ctx context.Context) (*AdminStats, error) {
	var st AdminStats
	var err error
	if st.Equipment, st.Clients, err = s.equipment.Totals(ctx); err != nil {
		return nil, err
	}
	if st.ActivePersonnel, err = s.people.ActiveCount(ctx); err != nil {
		return nil, err
	}
	if st.PendingOrders, err = s.orders.Count(ctx, entity.ListFilter{Status: entity.StatusPending}); err != nil {
		return nil, err
	}
	today := s.orders.Today()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	st.CompletedThisMonth, err = s.orders.Count(ctx, entity.ListFilter{
		Status:   entity.StatusCompleted,
		DateFrom: monthStart.Format(entity.DateLayout),
	})
	if err != nil {
		return nil, err
	}
	if st.PendingCorrective, st.OverduePreventive, err = s.orders.Backlog(ctx); err != nil {
		return nil, err
	}
	return &st, nil
}

// Assigned is the technician board: orders assigned to technicianID.
func (s *Service) Assigned(ctx context.Context, technicianID int64) (*Board, error) {
	return s.board(ctx, entity.ListFilter{TechnicianID: &technicianID})
}

// Reported is the client board: orders reported by reporterID.
func (s *Service) Reported(ctx context.Context, reporterID int64) (*Board, error) {
	return s.board(ctx, entity.ListFilter{ReporterID: &reporterID})
}

func (s *Service) board(ctx context.Context, f entity.ListFilter) (*Board, error) {
	counts, err := s.orders.StatusCounts(ctx, f)
	if err != nil {
		return nil, err
	}
	recent, err := s.orders.Recent(ctx, f, recentOrders)
	if err != nil {
		return nil, err
	}
	b := &Board{Counts: counts, Recent: recent}
	for _, n := range counts {
		b.Total += n
	}
	return b, nil
}
