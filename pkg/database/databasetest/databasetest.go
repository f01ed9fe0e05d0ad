// Package databasetest opens throwaway SQLite databases carrying the full
// OneServis schema, plus small seeding helpers for package tests.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/database"
)

// Open returns a file-backed SQLite database under t.TempDir with the
// schema applied. It is closed on test cleanup.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := database.Connect(database.Config{
		URL:     "sqlite://" + filepath.Join(t.TempDir(), "oneservis.db"),
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

// Person describes a personal row for seeding.
type Person struct {
	Name        string
	Email       string
	Role        string
	Title       string
	Institution string
	Password    *string
	Active      bool
}

// InsertPerson seeds a personal row and returns its id.
func InsertPerson(t testing.TB, db *sqlx.DB, p Person) int64 {
	t.Helper()
	if p.Title == "" {
		p.Title = "Staff"
	}
	if p.Institution == "" {
		p.Institution = "OneServis Central"
	}
	return insert(t, db, "id_personal",
		`INSERT INTO personal (nombre, cargo, correo, categoria, institucion, password, activo) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Title, p.Email, p.Role, p.Institution, p.Password, p.Active)
}

// InsertClient seeds a cliente row and returns its id.
func InsertClient(t testing.TB, db *sqlx.DB, name string) int64 {
	t.Helper()
	return insert(t, db, "id_cliente",
		`INSERT INTO cliente (nombre, rut, correo, telefono, direccion) VALUES (?, ?, ?, ?, ?)`,
		name, "76.000.000-0", "contacto@cliente.cl", "+56 2 2000 0000", "Av. Siempre Viva 742")
}

// InsertLocation seeds a ubicacion row and returns its id.
func InsertLocation(t testing.TB, db *sqlx.DB, area, floor string) int64 {
	t.Helper()
	return insert(t, db, "id_ubicacion",
		`INSERT INTO ubicacion (servicio_clinico, piso, detalle) VALUES (?, ?, ?)`,
		area, floor, "")
}

// Equipment describes an equipo row for seeding.
type Equipment struct {
	ClientID   int64
	LocationID int64
	Type       string
	Brand      string
	Model      string
	Serial     string
}

// InsertEquipment seeds an equipo row and returns its id.
func InsertEquipment(t testing.TB, db *sqlx.DB, e Equipment) int64 {
	t.Helper()
	return insert(t, db, "id_equipo",
		`INSERT INTO equipo (id_cliente, id_ubicacion, tipo_equipo, marca, modelo, serie, fecha_ingreso) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ClientID, e.LocationID, e.Type, e.Brand, e.Model, e.Serial, time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC))
}

// InsertWorkOrder seeds an orden_trabajo row and returns its id.
func InsertWorkOrder(t testing.TB, db *sqlx.DB, date time.Time, status, summary string, reporterID int64, technicianID *int64, equipmentID int64) int64 {
	t.Helper()
	return insert(t, db, "id_ot",
		`INSERT INTO orden_trabajo (fecha_ot, estado, resumen, id_quien_informa, id_tecnico_asignado, id_equipo) VALUES (?, ?, ?, ?, ?, ?)`,
		date, status, summary, reporterID, technicianID, equipmentID)
}

// Count returns SELECT COUNT(*) for the given table.
func Count(t testing.TB, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func insert(t testing.TB, db *sqlx.DB, pk, query string, args ...any) int64 {
	t.Helper()
	id, err := database.InsertID(context.Background(), db, pk, query, args...)
	if err != nil {
		t.Fatalf("seed %s: %v", pk, err)
	}
	return id
}
