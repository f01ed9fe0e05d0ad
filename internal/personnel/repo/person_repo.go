package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/database"
)

// PersonRepo provides data access for the personal table using sqlx.
type PersonRepo struct {
	db *sqlx.DB
}

func NewPersonRepo(db *sqlx.DB) *PersonRepo { return &PersonRepo{db: db} }

type personRow struct {
	ID          int64          `db:"id_personal"`
	Name        string         `db:"nombre"`
	Title       sql.NullString `db:"cargo"`
	Email       string         `db:"correo"`
	Role        string         `db:"categoria"`
	Institution sql.NullString `db:"institucion"`
	Password    sql.NullString `db:"password"`
	Active      bool           `db:"activo"`
	CreatedAt   sql.NullTime   `db:"fecha_creacion"`
	UpdatedAt   sql.NullTime   `db:"fecha_actualizacion"`
}

func (r personRow) toEntity() *entity.Person {
	p := &entity.Person{
		ID:          r.ID,
		Name:        r.Name,
		Title:       r.Title.String,
		Email:       r.Email,
		Role:        roleFromStored(r.Role),
		Institution: r.Institution.String,
		Active:      r.Active,
	}
	if r.Password.Valid {
		pw := r.Password.String
		p.Password = &pw
	}
	if r.CreatedAt.Valid {
		p.CreatedAt = &r.CreatedAt.Time
	}
	if r.UpdatedAt.Valid {
		p.UpdatedAt = &r.UpdatedAt.Time
	}
	return p
}

func roleFromStored(s string) entity.Role {
	if role, ok := entity.ParseRole(s); ok {
		return role
	}
	return entity.Role(s)
}

const selectPerson = `SELECT id_personal, nombre, cargo, correo, categoria, institucion, password, activo,
	fecha_creacion, fecha_actualizacion FROM personal`

// GetByEmail returns the person with exactly this email or sql.ErrNoRows.
func (r *PersonRepo) GetByEmail(ctx context.Context, email string) (*entity.Person, error) {
	var row personRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(selectPerson+` WHERE correo = ?`), email); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// GetByID fetches a person by primary key or sql.ErrNoRows.
func (r *PersonRepo) GetByID(ctx context.Context, id int64) (*entity.Person, error) {
	var row personRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(selectPerson+` WHERE id_personal = ?`), id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// CountByRole counts people with the given category, active or not.
func (r *PersonRepo) CountByRole(ctx context.Context, role entity.Role) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM personal WHERE categoria = ?`), role.Stored()); err != nil {
		return 0, err
	}
	return n, nil
}

// Create inserts a person and returns the new id.
func (r *PersonRepo) Create(ctx context.Context, p *entity.Person) (int64, error) {
	now := time.Now().UTC()
	id, err := database.InsertID(ctx, r.db, "id_personal",
		`INSERT INTO personal (nombre, cargo, correo, categoria, institucion, password, activo, fecha_creacion, fecha_actualizacion)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Title, p.Email, p.Role.Stored(), p.Institution, p.Password, p.Active, now, now)
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

// CountActive counts people who may still log in.
func (r *PersonRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM personal WHERE activo = ?`), true); err != nil {
		return 0, err
	}
	return n, nil
}
