package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/equipment"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/workorder"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/workorder/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/database/databasetest"
)

type seeded struct {
	svc        *Service
	db         *sqlx.DB
	technician int64
	client     int64
	order      int64
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T) *seeded {
	t.Helper()
	db := databasetest.Open(t)
	cl := databasetest.InsertClient(t, db, "Clinica Norte")
	loc := databasetest.InsertLocation(t, db, "UCI", "3")
	eq := databasetest.InsertEquipment(t, db, databasetest.Equipment{ClientID: cl, LocationID: loc, Type: "Monitor", Serial: "MN-001"})
	databasetest.InsertPerson(t, db, databasetest.Person{Name: "Ana Admin", Email: "ana@oneservis.com", Role: "ADMIN", Active: true})
	tech := databasetest.InsertPerson(t, db, databasetest.Person{Name: "Tomas Tecnico", Email: "tomas@oneservis.com", Role: "TECNICO", Active: true})
	client := databasetest.InsertPerson(t, db, databasetest.Person{Name: "Juan Cliente", Email: "juan@x.com", Role: "CLIENTE", Active: true})
	databasetest.InsertPerson(t, db, databasetest.Person{Name: "Ex Tecnico", Email: "ex@oneservis.com", Role: "TECNICO", Active: false})

	s := &seeded{db: db, technician: tech, client: client}
	s.order = databasetest.InsertWorkOrder(t, db, date(2025, 3, 4), "pendiente", "Monitor no enciende", client, &tech, eq)
	databasetest.InsertWorkOrder(t, db, date(2025, 3, 10), "en_proceso", "Calibracion de alarmas", client, &tech, eq)
	databasetest.InsertWorkOrder(t, db, date(2025, 3, 5), "completada", "Cambio de bateria", client, nil, eq)
	databasetest.InsertWorkOrder(t, db, date(2025, 2, 10), "completada", "Cambio de cable", tech, &tech, eq)
	databasetest.InsertWorkOrder(t, db, date(2025, 2, 11), "pendiente", "Revision general", tech, nil, eq)

	exec := func(q string, args ...any) {
		if _, err := db.Exec(db.Rebind(q), args...); err != nil {
			t.Fatalf("seed record: %v", err)
		}
	}
	exec(`INSERT INTO bd_correctivos (codigo, id_ot, id_equipo, id_personal, fecha, detalle, estado) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"COR-000001001", s.order, eq, client, date(2025, 3, 4), "detalle", "pendiente")
	for i, scheduled := range []time.Time{date(2025, 3, 1), date(2025, 3, 19), date(2025, 4, 1)} {
		exec(`INSERT INTO bd_preventivos (codigo, id_ot, id_equipo, id_personal, fecha_programada, detalle, estado) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			fmt.Sprintf("PRE-00000100%d", i), s.order, eq, client, scheduled, "detalle", "programada")
	}

	equip := equipment.NewService(db)
	orders := workorder.NewManager(db, equip, nil, workorder.WithClock(func() time.Time {
		return time.Date(2025, 3, 20, 15, 30, 0, 0, time.UTC)
	}))
	s.svc = NewService(orders, equip, personnel.NewService(db, nil, nil, nil))
	return s
}

func TestAdminStats(t *testing.T) {
	s := seed(t)
	st, err := s.svc.AdminStats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := AdminStats{
		Equipment:          1,
		Clients:            1,
		ActivePersonnel:    3,
		PendingOrders:      2,
		CompletedThisMonth: 1,
		PendingCorrective:  1,
		OverduePreventive:  2,
	}
	if *st != want {
		t.Fatalf("got %+v want %+v", *st, want)
	}
}

func TestBoards(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	tb, err := s.svc.Assigned(ctx, s.technician)
	if err != nil {
		t.Fatal(err)
	}
	if tb.Total != 3 || tb.Counts[entity.StatusPending] != 1 || tb.Counts[entity.StatusInProgress] != 1 || tb.Counts[entity.StatusCompleted] != 1 {
		t.Fatalf("technician board %+v", tb.Counts)
	}
	if tb.Counts[entity.StatusCancelled] != 0 {
		t.Fatal("cancelled count should be zero-filled")
	}

	cb, err := s.svc.Reported(ctx, s.client)
	if err != nil {
		t.Fatal(err)
	}
	if cb.Total != 3 || len(cb.Recent) != 3 {
		t.Fatalf("client board total=%d recent=%d", cb.Total, len(cb.Recent))
	}
	if got := cb.Recent[0].Summary; got != "Calibracion de alarmas" {
		t.Fatalf("newest first, got %q", got)
	}
	for _, o := range cb.Recent {
		if o.ReporterID != s.client {
			t.Fatalf("order %d leaked into client board", o.ID)
		}
	}
}
