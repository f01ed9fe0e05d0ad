package equipment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/equipment/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/equipment/repo"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/utilities"
)

var ErrNotFound = errors.New("equipment not found")

// Service encapsulates the read side of the equipment catalogue.
type Service struct {
	equipment *repo.EquipmentRepo
	lookups   *repo.LookupRepo
}

func NewService(db *sqlx.DB) *Service {
	return &Service{equipment: repo.NewEquipmentRepo(db), lookups: repo.NewLookupRepo(db)}
}

// List returns a filtered page of equipment plus the values the filters
// can take.
func (s *Service) List(ctx context.Context, f entity.ListFilter) (*entity.ListResult, error) {
	page, limit, offset := utilities.NormalizePage(f.Page, f.Limit)
	items, err := s.equipment.List(ctx, f, limit, offset)
	if err != nil {
		return nil, apperr.Storage("list equipment", err)
	}
	total, err := s.equipment.Count(ctx, f)
	if err != nil {
		return nil, apperr.Storage("count equipment", err)
	}
	opts, err := s.filterOptions(ctx)
	if err != nil {
		return nil, err
	}
	return &entity.ListResult{
		Equipment:  items,
		Pagination: utilities.NewPagination(page, limit, total),
		Filters:    *opts,
	}, nil
}

func (s *Service) filterOptions(ctx context.Context) (*entity.FilterOptions, error) {
	clients, err := s.lookups.Clients(ctx)
	if err != nil {
		return nil, apperr.Storage("list clients", err)
	}
	locations, err := s.lookups.Locations(ctx)
	if err != nil {
		return nil, apperr.Storage("list locations", err)
	}
	types, err := s.equipment.Types(ctx)
	if err != nil {
		return nil, apperr.Storage("list equipment types", err)
	}
	brands, err := s.equipment.Brands(ctx)
	if err != nil {
		return nil, apperr.Storage("list brands", err)
	}
	return &entity.FilterOptions{Clients: clients, Locations: locations, Types: types, Brands: brands}, nil
}

// Get returns one piece of equipment with its client and location.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Equipment, error) {
	e, err := s.equipment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.Storage("get equipment", err)
	}
	return e, nil
}

// ByLocation groups all equipment by installation location, in service
// area order.
func (s *Service) ByLocation(ctx context.Context) ([]entity.LocationGroup, []entity.Location, error) {
	items, err := s.equipment.AllByLocation(ctx)
	if err != nil {
		return nil, nil, apperr.Storage("list equipment by location", err)
	}
	locations, err := s.lookups.Locations(ctx)
	if err != nil {
		return nil, nil, apperr.Storage("list locations", err)
	}
	groups := []entity.LocationGroup{}
	index := map[int64]int{}
	for _, e := range items {
		i, ok := index[e.LocationID]
		if !ok {
			loc := *e.Location
			label := loc.ServiceArea
			if loc.Floor != "" {
				label = fmt.Sprintf("%s - Piso %s", loc.ServiceArea, loc.Floor)
			}
			groups = append(groups, entity.LocationGroup{Location: loc, Label: label})
			i = len(groups) - 1
			index[e.LocationID] = i
		}
		groups[i].Equipment = append(groups[i].Equipment, e)
	}
	return groups, locations, nil
}

// Totals reports catalogue sizes for dashboards.
func (s *Service) Totals(ctx context.Context) (equipment, clients int, err error) {
	if equipment, err = s.equipment.Total(ctx); err != nil {
		return 0, 0, apperr.Storage("count equipment", err)
	}
	if clients, err = s.lookups.CountClients(ctx); err != nil {
		return 0, 0, apperr.Storage("count clients", err)
	}
	return equipment, clients, nil
}
