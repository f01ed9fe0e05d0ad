package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// CoreTables lists the tables the service reads and writes. Names follow
// the legacy OneServis dataset so an existing database can be used as is.
var CoreTables = []string{
	"cliente",
	"ubicacion",
	"equipo",
	"personal",
	"orden_trabajo",
	"bd_correctivos",
	"bd_preventivos",
}

type dialect struct {
	pk      string
	indexes bool
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverPostgres:
		return dialect{pk: "BIGSERIAL PRIMARY KEY", indexes: true}, nil
	case DriverMySQL:
		// MySQL has no CREATE INDEX IF NOT EXISTS; legacy dumps ship their own keys
		return dialect{pk: "BIGINT AUTO_INCREMENT PRIMARY KEY"}, nil
	case DriverSQLite:
		return dialect{pk: "INTEGER PRIMARY KEY AUTOINCREMENT", indexes: true}, nil
	}
	return dialect{}, fmt.Errorf("unsupported driver %q", driver)
}

func (d dialect) statements() []string {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cliente (
			id_cliente ` + d.pk + `,
			nombre VARCHAR(255) NOT NULL,
			rut VARCHAR(32),
			correo VARCHAR(255),
			telefono VARCHAR(64),
			direccion VARCHAR(255)
		)`,
		`CREATE TABLE IF NOT EXISTS ubicacion (
			id_ubicacion ` + d.pk + `,
			servicio_clinico VARCHAR(255) NOT NULL,
			piso VARCHAR(64),
			detalle VARCHAR(255)
		)`,
		`CREATE TABLE IF NOT EXISTS equipo (
			id_equipo ` + d.pk + `,
			id_cliente BIGINT NOT NULL,
			id_ubicacion BIGINT NOT NULL,
			tipo_equipo VARCHAR(255) NOT NULL,
			marca VARCHAR(255),
			modelo VARCHAR(255),
			serie VARCHAR(255),
			fecha_ingreso DATE
		)`,
		`CREATE TABLE IF NOT EXISTS personal (
			id_personal ` + d.pk + `,
			nombre VARCHAR(255) NOT NULL,
			cargo VARCHAR(255),
			correo VARCHAR(255) NOT NULL UNIQUE,
			categoria VARCHAR(32) NOT NULL,
			institucion VARCHAR(255),
			password VARCHAR(255),
			activo BOOLEAN NOT NULL DEFAULT TRUE,
			fecha_creacion TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			fecha_actualizacion TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS orden_trabajo (
			id_ot ` + d.pk + `,
			fecha_ot DATE NOT NULL,
			estado VARCHAR(32) NOT NULL DEFAULT 'pendiente',
			resumen TEXT NOT NULL,
			id_quien_informa BIGINT NOT NULL,
			id_tecnico_asignado BIGINT,
			id_equipo BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bd_correctivos (
			id_correctivo ` + d.pk + `,
			codigo VARCHAR(32) NOT NULL UNIQUE,
			id_ot BIGINT NOT NULL,
			id_equipo BIGINT NOT NULL,
			id_personal BIGINT NOT NULL,
			fecha DATE NOT NULL,
			detalle TEXT,
			estado VARCHAR(32) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bd_preventivos (
			id_preventivo ` + d.pk + `,
			codigo VARCHAR(32) NOT NULL UNIQUE,
			id_ot BIGINT NOT NULL,
			id_equipo BIGINT NOT NULL,
			id_personal BIGINT NOT NULL,
			fecha_programada DATE NOT NULL,
			fecha_ejecucion DATE,
			detalle TEXT,
			estado VARCHAR(32) NOT NULL
		)`,
	}
	if d.indexes {
		stmts = append(stmts,
			`CREATE INDEX IF NOT EXISTS idx_equipo_cliente ON equipo(id_cliente)`,
			`CREATE INDEX IF NOT EXISTS idx_equipo_ubicacion ON equipo(id_ubicacion)`,
			`CREATE INDEX IF NOT EXISTS idx_personal_categoria ON personal(categoria)`,
			`CREATE INDEX IF NOT EXISTS idx_ot_estado ON orden_trabajo(estado)`,
			`CREATE INDEX IF NOT EXISTS idx_ot_equipo ON orden_trabajo(id_equipo)`,
			`CREATE INDEX IF NOT EXISTS idx_ot_tecnico ON orden_trabajo(id_tecnico_asignado)`,
			`CREATE INDEX IF NOT EXISTS idx_ot_fecha ON orden_trabajo(fecha_ot)`,
			`CREATE INDEX IF NOT EXISTS idx_correctivos_ot ON bd_correctivos(id_ot)`,
			`CREATE INDEX IF NOT EXISTS idx_preventivos_ot ON bd_preventivos(id_ot)`,
		)
	}
	return stmts
}

// EnsureSchema creates the OneServis tables if they do not exist yet.
// Safe to run on every start.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	d, err := dialectFor(db.DriverName())
	if err != nil {
		return err
	}
	for _, stmt := range d.statements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// MissingTables reports which of CoreTables cannot be queried.
func MissingTables(ctx context.Context, db *sqlx.DB) ([]string, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	var missing []string
	for _, t := range CoreTables {
		rows, err := db.QueryContext(ctx, "SELECT 1 FROM "+t+" WHERE 1 = 0")
		if err != nil {
			missing = append(missing, t)
			continue
		}
		rows.Close()
	}
	return missing, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
