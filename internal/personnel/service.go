package personnel

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel/entity"
	personrepo "github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel/repo"
)

// LegacySentinel is the shared initial password of accounts that were
// provisioned before hashed credentials existed. Accounts whose stored
// credential is empty or equal to it authenticate with this value only.
// TODO: force a password change on first sentinel login and drop this.
const LegacySentinel = "temporal123"

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

var (
	ErrNotFound       = errors.New("person not found")
	ErrInactive       = errors.New("person inactive")
	ErrBadCredentials = errors.New("invalid credentials")
)

// Service authenticates personnel and provisions the initial administrator.
type Service struct {
	repo   *personrepo.PersonRepo
	hasher PasswordHasher
	logger *zap.SugaredLogger
}

func NewService(db *sqlx.DB, r *personrepo.PersonRepo, hasher PasswordHasher, logger *zap.SugaredLogger) *Service {
	if r == nil {
		r = personrepo.NewPersonRepo(db)
	}
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{repo: r, hasher: hasher, logger: logger}
}

// Authenticate checks an email/password pair. The email must match exactly.
// Inactive accounts fail regardless of the password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.PublicProfile, error) {
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.Storage("get person by email", err)
	}
	if !p.Active {
		return nil, ErrInactive
	}
	if !s.passwordMatches(p.Password, password) {
		return nil, ErrBadCredentials
	}
	profile := p.Profile()
	return &profile, nil
}

func (s *Service) passwordMatches(stored *string, password string) bool {
	if stored != nil && *stored != "" && *stored != LegacySentinel {
		return s.hasher.Verify(*stored, password)
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(LegacySentinel)) == 1
}

// Profile reloads an active person, used to confirm that a session still
// belongs to someone allowed in.
func (s *Service) Profile(ctx context.Context, id int64) (*entity.PublicProfile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.Storage("get person", err)
	}
	if !p.Active {
		return nil, ErrInactive
	}
	profile := p.Profile()
	return &profile, nil
}

// InitialAdmin describes the account created when no ADMIN exists.
type InitialAdmin struct {
	Email    string
	Password string
}

// EnsureInitialAdmin creates the first administrator if there is no ADMIN
// at all. It reports whether an account was created.
func (s *Service) EnsureInitialAdmin(ctx context.Context, in InitialAdmin) (bool, error) {
	n, err := s.repo.CountByRole(ctx, entity.RoleAdmin)
	if err != nil {
		return false, apperr.Storage("count admins", err)
	}
	if n > 0 {
		return false, nil
	}
	email := in.Email
	if email == "" {
		email = "admin@oneservis.com"
	}
	credential := LegacySentinel
	if in.Password != "" {
		h, err := s.hasher.Hash(in.Password)
		if err != nil {
			return false, apperr.Internal("hash admin password", err)
		}
		credential = h
	} else {
		s.logger.Warnw("initial admin uses the legacy shared password; set BOOTSTRAP_ADMIN_PASSWORD", "email", email)
	}
	p := &entity.Person{
		Name:        "Administrador Sistema",
		Title:       "Administrador",
		Email:       email,
		Role:        entity.RoleAdmin,
		Institution: "OneServis Central",
		Password:    &credential,
		Active:      true,
	}
	if _, err := s.repo.Create(ctx, p); err != nil {
		return false, apperr.Storage("create initial admin", err)
	}
	s.logger.Infow("initial admin created", "id", p.ID, "email", email)
	return true, nil
}

// HashPassword produces a stored credential for pw.
func (s *Service) HashPassword(pw string) (string, error) {
	if pw == "" {
		return "", fmt.Errorf("empty password")
	}
	return s.hasher.Hash(pw)
}

// ActiveCount counts active personnel of every role.
func (s *Service) ActiveCount(ctx context.Context) (int, error) {
	n, err := s.repo.CountActive(ctx)
	if err != nil {
		return 0, apperr.Storage("count active personnel", err)
	}
	return n, nil
}
