package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/workorder/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/database"
)

// NewRecord is a maintenance record about to be written. Date is the
// record date for corrective work and the scheduled date for preventive
// work.
type NewRecord struct {
	Kind        entity.Kind
	Code        string
	OrderID     int64
	EquipmentID int64
	PersonID    int64
	Date        time.Time
	Detail      string
	Status      string
}

// InsertRecord writes rec into bd_correctivos or bd_preventivos depending
// on its kind.
func (r *OrderRepo) InsertRecord(ctx context.Context, rec NewRecord) (int64, error) {
	if rec.Kind == entity.KindPreventive {
		return database.InsertID(ctx, r.db, "id_preventivo",
			`INSERT INTO bd_preventivos (codigo, id_ot, id_equipo, id_personal, fecha_programada, detalle, estado) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.Code, rec.OrderID, rec.EquipmentID, rec.PersonID, rec.Date, rec.Detail, rec.Status)
	}
	return database.InsertID(ctx, r.db, "id_correctivo",
		`INSERT INTO bd_correctivos (codigo, id_ot, id_equipo, id_personal, fecha, detalle, estado) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Code, rec.OrderID, rec.EquipmentID, rec.PersonID, rec.Date, rec.Detail, rec.Status)
}

type recordRow struct {
	ID         int64          `db:"id"`
	Code       string         `db:"codigo"`
	OrderID    int64          `db:"id_ot"`
	PersonID   int64          `db:"id_personal"`
	Date       time.Time      `db:"fecha"`
	ExecutedOn sql.NullTime   `db:"fecha_ejecucion"`
	Detail     sql.NullString `db:"detalle"`
	Status     string         `db:"estado"`
}

func (r recordRow) toEntity(kind entity.Kind) entity.Record {
	rec := entity.Record{
		ID:       r.ID,
		Kind:     kind,
		Code:     r.Code,
		OrderID:  r.OrderID,
		PersonID: r.PersonID,
		Date:     r.Date.Format(entity.DateLayout),
		Detail:   r.Detail.String,
		Status:   r.Status,
	}
	if r.ExecutedOn.Valid {
		rec.ExecutedOn = r.ExecutedOn.Time.Format(entity.DateLayout)
	}
	return rec
}

// RecordsFor lists the maintenance records of an order, corrective first.
func (r *OrderRepo) RecordsFor(ctx context.Context, orderID int64) ([]entity.Record, error) {
	var out []entity.Record
	var corrective []recordRow
	err := sqlx.SelectContext(ctx, r.db, &corrective, r.db.Rebind(`SELECT id_correctivo AS id, codigo, id_ot, id_personal, fecha, NULL AS fecha_ejecucion, detalle, estado
		FROM bd_correctivos WHERE id_ot = ? ORDER BY id_correctivo`), orderID)
	if err != nil {
		return nil, err
	}
	for _, row := range corrective {
		out = append(out, row.toEntity(entity.KindCorrective))
	}
	var preventive []recordRow
	err = sqlx.SelectContext(ctx, r.db, &preventive, r.db.Rebind(`SELECT id_preventivo AS id, codigo, id_ot, id_personal, fecha_programada AS fecha, fecha_ejecucion, detalle, estado
		FROM bd_preventivos WHERE id_ot = ? ORDER BY id_preventivo`), orderID)
	if err != nil {
		return nil, err
	}
	for _, row := range preventive {
		out = append(out, row.toEntity(entity.KindPreventive))
	}
	return out, nil
}

// PendingCorrectives counts corrective records still waiting for work.
func (r *OrderRepo) PendingCorrectives(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, r.db.Rebind(`SELECT COUNT(*) FROM bd_correctivos WHERE estado = ?`), entity.KindCorrective.RecordStatus())
	return n, err
}

// OverduePreventives counts preventive records scheduled before today and
// not yet executed.
func (r *OrderRepo) OverduePreventives(ctx context.Context, today time.Time) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, r.db.Rebind(`SELECT COUNT(*) FROM bd_preventivos WHERE fecha_programada < ? AND fecha_ejecucion IS NULL`), today)
	return n, err
}
