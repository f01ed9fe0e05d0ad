package repo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/equipment/entity"
)

// LookupRepo reads the client and location catalogues.
type LookupRepo struct {
	db *sqlx.DB
}

func NewLookupRepo(db *sqlx.DB) *LookupRepo {
	return &LookupRepo{db: db}
}

type clientRow struct {
	ID      int64          `db:"id_cliente"`
	Name    string         `db:"nombre"`
	TaxID   sql.NullString `db:"rut"`
	Email   sql.NullString `db:"correo"`
	Phone   sql.NullString `db:"telefono"`
	Address sql.NullString `db:"direccion"`
}

type locationRow struct {
	ID          int64          `db:"id_ubicacion"`
	ServiceArea string         `db:"servicio_clinico"`
	Floor       sql.NullString `db:"piso"`
	Detail      sql.NullString `db:"detalle"`
}

func (r *LookupRepo) Clients(ctx context.Context) ([]entity.Client, error) {
	var rows []clientRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id_cliente, nombre, rut, correo, telefono, direccion FROM cliente ORDER BY nombre`); err != nil {
		return nil, err
	}
	out := make([]entity.Client, 0, len(rows))
	for _, c := range rows {
		out = append(out, entity.Client{
			ID:      c.ID,
			Name:    c.Name,
			TaxID:   c.TaxID.String,
			Email:   c.Email.String,
			Phone:   c.Phone.String,
			Address: c.Address.String,
		})
	}
	return out, nil
}

func (r *LookupRepo) Locations(ctx context.Context) ([]entity.Location, error) {
	var rows []locationRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id_ubicacion, servicio_clinico, piso, detalle FROM ubicacion ORDER BY servicio_clinico, id_ubicacion`); err != nil {
		return nil, err
	}
	out := make([]entity.Location, 0, len(rows))
	for _, l := range rows {
		out = append(out, entity.Location{ID: l.ID, ServiceArea: l.ServiceArea, Floor: l.Floor.String, Detail: l.Detail.String})
	}
	return out, nil
}

// CountClients counts cliente rows.
func (r *LookupRepo) CountClients(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM cliente`)
	return n, err
}
