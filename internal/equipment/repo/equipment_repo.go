package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/equipment/entity"
)

// EquipmentRepo reads equipo joined with its client and location.
type EquipmentRepo struct {
	db *sqlx.DB
}

func NewEquipmentRepo(db *sqlx.DB) *EquipmentRepo { return &EquipmentRepo{db: db} }

type equipmentRow struct {
	ID             int64          `db:"id_equipo"`
	ClientID       int64          `db:"id_cliente"`
	LocationID     int64          `db:"id_ubicacion"`
	Type           string         `db:"tipo_equipo"`
	Brand          sql.NullString `db:"marca"`
	Model          sql.NullString `db:"modelo"`
	Serial         sql.NullString `db:"serie"`
	IntakeDate     sql.NullTime   `db:"fecha_ingreso"`
	ClientName     string         `db:"cliente_nombre"`
	ClientTaxID    sql.NullString `db:"cliente_rut"`
	ClientEmail    sql.NullString `db:"cliente_correo"`
	ClientPhone    sql.NullString `db:"cliente_telefono"`
	ClientAddress  sql.NullString `db:"cliente_direccion"`
	ServiceArea    string         `db:"servicio_clinico"`
	Floor          sql.NullString `db:"piso"`
	LocationDetail sql.NullString `db:"ubicacion_detalle"`
}

func (r equipmentRow) toEntity() entity.Equipment {
	e := entity.Equipment{
		ID:         r.ID,
		ClientID:   r.ClientID,
		LocationID: r.LocationID,
		Type:       r.Type,
		Brand:      r.Brand.String,
		Model:      r.Model.String,
		Serial:     r.Serial.String,
		Client: &entity.Client{
			ID:      r.ClientID,
			Name:    r.ClientName,
			TaxID:   r.ClientTaxID.String,
			Email:   r.ClientEmail.String,
			Phone:   r.ClientPhone.String,
			Address: r.ClientAddress.String,
		},
		Location: &entity.Location{
			ID:          r.LocationID,
			ServiceArea: r.ServiceArea,
			Floor:       r.Floor.String,
			Detail:      r.LocationDetail.String,
		},
	}
	if r.IntakeDate.Valid {
		e.IntakeDate = r.IntakeDate.Time.Format("2006-01-02")
	}
	return e
}

const selectEquipment = `SELECT e.id_equipo, e.id_cliente, e.id_ubicacion, e.tipo_equipo, e.marca, e.modelo, e.serie, e.fecha_ingreso,
	c.nombre AS cliente_nombre, c.rut AS cliente_rut, c.correo AS cliente_correo, c.telefono AS cliente_telefono,
	c.direccion AS cliente_direccion,
	u.servicio_clinico, u.piso, u.detalle AS ubicacion_detalle`

const fromEquipment = `
	FROM equipo e
	INNER JOIN cliente c ON e.id_cliente = c.id_cliente
	INNER JOIN ubicacion u ON e.id_ubicacion = u.id_ubicacion`

// GetByID returns one piece of equipment with client and location, or
// sql.ErrNoRows.
func (r *EquipmentRepo) GetByID(ctx context.Context, id int64) (*entity.Equipment, error) {
	var row equipmentRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(selectEquipment+fromEquipment+` WHERE e.id_equipo = ?`), id); err != nil {
		return nil, err
	}
	e := row.toEntity()
	return &e, nil
}

func where(f entity.ListFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Search != "" {
		conds = append(conds, `(e.tipo_equipo LIKE ? OR e.marca LIKE ? OR e.modelo LIKE ? OR e.serie LIKE ? OR c.nombre LIKE ? OR u.servicio_clinico LIKE ?)`)
		term := "%" + f.Search + "%"
		args = append(args, term, term, term, term, term, term)
	}
	if f.ClientID != nil {
		conds = append(conds, `e.id_cliente = ?`)
		args = append(args, *f.ClientID)
	}
	if f.LocationID != nil {
		conds = append(conds, `e.id_ubicacion = ?`)
		args = append(args, *f.LocationID)
	}
	if f.Type != "" {
		conds = append(conds, `e.tipo_equipo = ?`)
		args = append(args, f.Type)
	}
	if f.Brand != "" {
		conds = append(conds, `e.marca = ?`)
		args = append(args, f.Brand)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of equipment, newest intake first.
func (r *EquipmentRepo) List(ctx context.Context, f entity.ListFilter, limit, offset int) ([]entity.Equipment, error) {
	w, args := where(f)
	q := selectEquipment + fromEquipment + w + ` ORDER BY e.fecha_ingreso DESC, e.id_equipo DESC LIMIT ? OFFSET ?`
	var rows []equipmentRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), append(args, limit, offset)...); err != nil {
		return nil, err
	}
	out := make([]entity.Equipment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *EquipmentRepo) Count(ctx context.Context, f entity.ListFilter) (int, error) {
	w, args := where(f)
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*)`+fromEquipment+w), args...); err != nil {
		return 0, err
	}
	return n, nil
}

// AllByLocation returns every piece of equipment ordered by service area
// and type, for the request form.
func (r *EquipmentRepo) AllByLocation(ctx context.Context) ([]entity.Equipment, error) {
	var rows []equipmentRow
	q := selectEquipment + fromEquipment + ` ORDER BY u.servicio_clinico ASC, e.tipo_equipo ASC, e.id_equipo ASC`
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	out := make([]entity.Equipment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// Types lists distinct equipment types.
func (r *EquipmentRepo) Types(ctx context.Context) ([]string, error) {
	out := []string{}
	err := r.db.SelectContext(ctx, &out, `SELECT DISTINCT tipo_equipo FROM equipo WHERE tipo_equipo IS NOT NULL ORDER BY tipo_equipo`)
	return out, err
}

// Brands lists distinct brands.
func (r *EquipmentRepo) Brands(ctx context.Context) ([]string, error) {
	out := []string{}
	err := r.db.SelectContext(ctx, &out, `SELECT DISTINCT marca FROM equipo WHERE marca IS NOT NULL AND marca <> '' ORDER BY marca`)
	return out, err
}

// Total counts every equipo row.
func (r *EquipmentRepo) Total(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM equipo`)
	return n, err
}
