package repo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	personnel "github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/workorder/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/database"
)

// OrderRepo reads and writes orden_trabajo and its maintenance records. It
// runs on a *sqlx.DB or, through WithTx, inside a transaction.
type OrderRepo struct {
	db sqlx.ExtContext
}

func NewOrderRepo(db sqlx.ExtContext) *OrderRepo { return &OrderRepo{db: db} }

// WithTx returns a repo bound to tx.
func (r *OrderRepo) WithTx(tx *sqlx.Tx) *OrderRepo { return &OrderRepo{db: tx} }

type orderRow struct {
	ID              int64          `db:"id_ot"`
	Date            time.Time      `db:"fecha_ot"`
	Status          string         `db:"estado"`
	Summary         string         `db:"resumen"`
	ReporterID      int64          `db:"id_quien_informa"`
	TechnicianID    sql.NullInt64  `db:"id_tecnico_asignado"`
	EquipmentID     int64          `db:"id_equipo"`
	ReporterName    string         `db:"informa_nombre"`
	ReporterEmail   string         `db:"informa_correo"`
	TechnicianName  sql.NullString `db:"tecnico_nombre"`
	TechnicianEmail sql.NullString `db:"tecnico_correo"`
	EquipmentType   string         `db:"tipo_equipo"`
	Brand           sql.NullString `db:"marca"`
	Model           sql.NullString `db:"modelo"`
	Serial          sql.NullString `db:"serie"`
	ClientID        int64          `db:"id_cliente"`
	ClientName      string         `db:"cliente_nombre"`
	LocationID      int64          `db:"id_ubicacion"`
	ServiceArea     string         `db:"servicio_clinico"`
	Floor           sql.NullString `db:"piso"`
}

func (r orderRow) toEntity() entity.WorkOrder {
	o := entity.WorkOrder{
		ID:          r.ID,
		Date:        r.Date.Format(entity.DateLayout),
		Status:      entity.StatusFromStored(r.Status),
		Summary:     r.Summary,
		ReporterID:  r.ReporterID,
		EquipmentID: r.EquipmentID,
		Reporter:    &entity.Person{ID: r.ReporterID, Name: r.ReporterName, Email: r.ReporterEmail},
		Equipment: &entity.EquipmentRef{
			ID:          r.EquipmentID,
			Type:        r.EquipmentType,
			Brand:       r.Brand.String,
			Model:       r.Model.String,
			Serial:      r.Serial.String,
			ClientID:    r.ClientID,
			ClientName:  r.ClientName,
			LocationID:  r.LocationID,
			ServiceArea: r.ServiceArea,
			Floor:       r.Floor.String,
		},
	}
	if r.TechnicianID.Valid {
		id := r.TechnicianID.Int64
		o.TechnicianID = &id
		o.Technician = &entity.Person{ID: id, Name: r.TechnicianName.String, Email: r.TechnicianEmail.String}
	}
	return o
}

const selectOrder = `SELECT ot.id_ot, ot.fecha_ot, ot.estado, ot.resumen, ot.id_quien_informa, ot.id_tecnico_asignado, ot.id_equipo,
	qi.nombre AS informa_nombre, qi.correo AS informa_correo,
	ta.nombre AS tecnico_nombre, ta.correo AS tecnico_correo,
	e.tipo_equipo, e.marca, e.modelo, e.serie,
	c.id_cliente, c.nombre AS cliente_nombre,
	u.id_ubicacion, u.servicio_clinico, u.piso`

const fromOrder = `
	FROM orden_trabajo ot
	INNER JOIN personal qi ON ot.id_quien_informa = qi.id_personal
	LEFT JOIN personal ta ON ot.id_tecnico_asignado = ta.id_personal
	INNER JOIN equipo e ON ot.id_equipo = e.id_equipo
	INNER JOIN cliente c ON e.id_cliente = c.id_cliente
	INNER JOIN ubicacion u ON e.id_ubicacion = u.id_ubicacion`

func where(f entity.ListFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Search != "" {
		conds = append(conds, `(ot.resumen LIKE ? OR CAST(ot.id_ot AS CHAR(20)) LIKE ? OR e.tipo_equipo LIKE ? OR e.serie LIKE ? OR qi.nombre LIKE ? OR ta.nombre LIKE ?)`)
		term := "%" + f.Search + "%"
		args = append(args, term, term, term, term, term, term)
	}
	if f.Status != "" {
		conds = append(conds, `ot.estado = ?`)
		args = append(args, f.Status.Stored())
	}
	if f.TechnicianID != nil {
		conds = append(conds, `ot.id_tecnico_asignado = ?`)
		args = append(args, *f.TechnicianID)
	}
	if f.EquipmentID != nil {
		conds = append(conds, `ot.id_equipo = ?`)
		args = append(args, *f.EquipmentID)
	}
	if f.ReporterID != nil {
		conds = append(conds, `ot.id_quien_informa = ?`)
		args = append(args, *f.ReporterID)
	}
	if from, err := entity.ParseDate(f.DateFrom); err == nil {
		conds = append(conds, `ot.fecha_ot >= ?`)
		args = append(args, from)
	}
	if to, err := entity.ParseDate(f.DateTo); err == nil {
		conds = append(conds, `ot.fecha_ot < ?`)
		args = append(args, to.AddDate(0, 0, 1))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of orders, newest first.
func (r *OrderRepo) List(ctx context.Context, f entity.ListFilter, limit, offset int) ([]entity.WorkOrder, error) {
	w, args := where(f)
	q := selectOrder + fromOrder + w + ` ORDER BY ot.fecha_ot DESC, ot.id_ot DESC LIMIT ? OFFSET ?`
	var rows []orderRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(q), append(args, limit, offset)...); err != nil {
		return nil, err
	}
	out := make([]entity.WorkOrder, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *OrderRepo) Count(ctx context.Context, f entity.ListFilter) (int, error) {
	w, args := where(f)
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, r.db.Rebind(`SELECT COUNT(*)`+fromOrder+w), args...); err != nil {
		return 0, err
	}
	return n, nil
}

// StatusCounts groups the orders matching f by status.
func (r *OrderRepo) StatusCounts(ctx context.Context, f entity.ListFilter) (map[entity.Status]int, error) {
	w, args := where(f)
	var rows []struct {
		Status string `db:"estado"`
		N      int    `db:"n"`
	}
	q := `SELECT ot.estado, COUNT(*) AS n` + fromOrder + w + ` GROUP BY ot.estado`
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	out := make(map[entity.Status]int, len(entity.Statuses()))
	for _, s := range entity.Statuses() {
		out[s] = 0
	}
	for _, row := range rows {
		out[entity.StatusFromStored(row.Status)] += row.N
	}
	return out, nil
}

// Get returns one order with its joins, or sql.ErrNoRows.
func (r *OrderRepo) Get(ctx context.Context, id int64) (*entity.WorkOrder, error) {
	var row orderRow
	if err := sqlx.GetContext(ctx, r.db, &row, r.db.Rebind(selectOrder+fromOrder+` WHERE ot.id_ot = ?`), id); err != nil {
		return nil, err
	}
	o := row.toEntity()
	return &o, nil
}

func (r *OrderRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, r.db.Rebind(`SELECT COUNT(*) FROM orden_trabajo WHERE id_ot = ?`), id); err != nil {
		return false, err
	}
	return n > 0, nil
}

// NewOrder is the row written by Insert.
type NewOrder struct {
	Date         time.Time
	Status       entity.Status
	Summary      string
	ReporterID   int64
	TechnicianID *int64
	EquipmentID  int64
}

func (r *OrderRepo) Insert(ctx context.Context, o NewOrder) (int64, error) {
	return database.InsertID(ctx, r.db, "id_ot",
		`INSERT INTO orden_trabajo (fecha_ot, estado, resumen, id_quien_informa, id_tecnico_asignado, id_equipo) VALUES (?, ?, ?, ?, ?, ?)`,
		o.Date, o.Status.Stored(), o.Summary, o.ReporterID, o.TechnicianID, o.EquipmentID)
}

// Patch lists the columns an update touches; nil fields are left alone.
// ClearTechnician sets id_tecnico_asignado to NULL.
type Patch struct {
	Date            *time.Time
	Status          *entity.Status
	Summary         *string
	TechnicianID    *int64
	ClearTechnician bool
}

func (p Patch) Empty() bool {
	return p.Date == nil && p.Status == nil && p.Summary == nil && p.TechnicianID == nil && !p.ClearTechnician
}

// Update applies p to order id and reports whether a row was changed.
func (r *OrderRepo) Update(ctx context.Context, id int64, p Patch) (bool, error) {
	if p.Empty() {
		return false, nil
	}
	var sets []string
	var args []any
	if p.Date != nil {
		sets = append(sets, "fecha_ot = ?")
		args = append(args, *p.Date)
	}
	if p.Status != nil {
		sets = append(sets, "estado = ?")
		args = append(args, p.Status.Stored())
	}
	if p.Summary != nil {
		sets = append(sets, "resumen = ?")
		args = append(args, *p.Summary)
	}
	switch {
	case p.ClearTechnician:
		sets = append(sets, "id_tecnico_asignado = NULL")
	case p.TechnicianID != nil:
		sets = append(sets, "id_tecnico_asignado = ?")
		args = append(args, *p.TechnicianID)
	}
	q := `UPDATE orden_trabajo SET ` + strings.Join(sets, ", ") + ` WHERE id_ot = ?`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), append(args, id)...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteCascade removes the order together with its corrective and
// preventive records. Run it inside a transaction.
func (r *OrderRepo) DeleteCascade(ctx context.Context, id int64) (bool, error) {
	for _, q := range []string{
		`DELETE FROM bd_correctivos WHERE id_ot = ?`,
		`DELETE FROM bd_preventivos WHERE id_ot = ?`,
	} {
		if _, err := r.db.ExecContext(ctx, r.db.Rebind(q), id); err != nil {
			return false, err
		}
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM orden_trabajo WHERE id_ot = ?`), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FilterOptions loads equipment, technicians and statuses for the list
// filters.
func (r *OrderRepo) FilterOptions(ctx context.Context) (*entity.FilterOptions, error) {
	var equipment []struct {
		ID         int64          `db:"id_equipo"`
		Type       string         `db:"tipo_equipo"`
		Serial     sql.NullString `db:"serie"`
		ClientName string         `db:"nombre"`
	}
	err := sqlx.SelectContext(ctx, r.db, &equipment, `SELECT e.id_equipo, e.tipo_equipo, e.serie, c.nombre
		FROM equipo e INNER JOIN cliente c ON e.id_cliente = c.id_cliente
		ORDER BY c.nombre, e.tipo_equipo, e.id_equipo`)
	if err != nil {
		return nil, err
	}
	var technicians []struct {
		ID    int64  `db:"id_personal"`
		Name  string `db:"nombre"`
		Email string `db:"correo"`
	}
	err = sqlx.SelectContext(ctx, r.db, &technicians,
		r.db.Rebind(`SELECT id_personal, nombre, correo FROM personal WHERE categoria = ? ORDER BY nombre`),
		personnel.RoleTechnician.Stored())
	if err != nil {
		return nil, err
	}
	opts := &entity.FilterOptions{
		Equipment:   make([]entity.EquipmentOption, 0, len(equipment)),
		Technicians: make([]entity.Person, 0, len(technicians)),
		Statuses:    entity.Statuses(),
	}
	for _, e := range equipment {
		opts.Equipment = append(opts.Equipment, entity.EquipmentOption{ID: e.ID, Type: e.Type, Serial: e.Serial.String, ClientName: e.ClientName})
	}
	for _, t := range technicians {
		opts.Technicians = append(opts.Technicians, entity.Person{ID: t.ID, Name: t.Name, Email: t.Email})
	}
	return opts, nil
}
