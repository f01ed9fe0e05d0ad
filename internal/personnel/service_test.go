package personnel

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/database/databasetest"
)

func strPtr(s string) *string { return &s }

// cheap bcrypt for tests
var testHasher = BcryptHasher{Cost: 4}

func newTestService(t *testing.T) (*Service, *sqlx.DB) {
	t.Helper()
	db := databasetest.Open(t)
	return NewService(db, nil, testHasher, nil), db
}

func TestAuthenticateHashedPassword(t *testing.T) {
	svc, db := newTestService(t)
	hash, _ := testHasher.Hash("s3cure-pass")
	databasetest.InsertPerson(t, db, databasetest.Person{
		Name: "Pedro Soto", Email: "pedro@oneservis.com", Role: "TECNICO", Password: &hash, Active: true,
	})

	p, err := svc.Authenticate(context.Background(), "pedro@oneservis.com", "s3cure-pass")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p.Role != entity.RoleTechnician || p.Email != "pedro@oneservis.com" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if _, err := svc.Authenticate(context.Background(), "pedro@oneservis.com", "temporal123"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("sentinel must not open a hashed account, got %v", err)
	}
}

func TestAuthenticateLegacySentinel(t *testing.T) {
	svc, db := newTestService(t)
	databasetest.InsertPerson(t, db, databasetest.Person{
		Name: "Sin Clave", Email: "nopass@oneservis.com", Role: "CLIENTE", Active: true,
	})
	databasetest.InsertPerson(t, db, databasetest.Person{
		Name: "Clave Temporal", Email: "temp@oneservis.com", Role: "CLIENTE", Password: strPtr(LegacySentinel), Active: true,
	})

	for _, email := range []string{"nopass@oneservis.com", "temp@oneservis.com"} {
		if _, err := svc.Authenticate(context.Background(), email, LegacySentinel); err != nil {
			t.Fatalf("%s: sentinel should authenticate: %v", email, err)
		}
		if _, err := svc.Authenticate(context.Background(), email, "anything-else"); !errors.Is(err, ErrBadCredentials) {
			t.Fatalf("%s: expected ErrBadCredentials got %v", email, err)
		}
	}
}

func TestAuthenticateInactiveAndUnknown(t *testing.T) {
	svc, db := newTestService(t)
	hash, _ := testHasher.Hash("right")
	databasetest.InsertPerson(t, db, databasetest.Person{
		Name: "Baja", Email: "old@oneservis.com", Role: "TECNICO", Password: &hash, Active: false,
	})

	if _, err := svc.Authenticate(context.Background(), "old@oneservis.com", "right"); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ghost@oneservis.com", "right"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	// exact match only
	if _, err := svc.Authenticate(context.Background(), "OLD@oneservis.com", "right"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for different case got %v", err)
	}
}

func TestEnsureInitialAdmin(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	created, err := svc.EnsureInitialAdmin(ctx, InitialAdmin{Email: "admin@oneservis.com", Password: "bootstrap-pass"})
	if err != nil || !created {
		t.Fatalf("expected admin to be created: %v %v", created, err)
	}
	created, err = svc.EnsureInitialAdmin(ctx, InitialAdmin{Email: "admin@oneservis.com"})
	if err != nil || created {
		t.Fatalf("second call must be a no-op: %v %v", created, err)
	}
	if n := databasetest.Count(t, db, "personal"); n != 1 {
		t.Fatalf("expected one person got %d", n)
	}

	p, err := svc.Authenticate(ctx, "admin@oneservis.com", "bootstrap-pass")
	if err != nil {
		t.Fatalf("authenticate admin: %v", err)
	}
	if p.Role != entity.RoleAdmin || p.Name != "Administrador Sistema" || p.Institution != "OneServis Central" {
		t.Fatalf("unexpected admin profile %+v", p)
	}
}

func TestProfileRejectsInactive(t *testing.T) {
	svc, db := newTestService(t)
	id := databasetest.InsertPerson(t, db, databasetest.Person{Name: "Baja", Email: "b@oneservis.com", Role: "CLIENTE", Active: false})
	if _, err := svc.Profile(context.Background(), id); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive got %v", err)
	}
	if _, err := svc.Profile(context.Background(), id+100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}
