package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel/entity"
)

// TTL is the fixed lifetime of a session token.
const TTL = 24 * time.Hour

var ErrInvalid = errors.New("invalid session token")

type claims struct {
	User entity.PublicProfile `json:"user"`
	jwt.RegisteredClaims
}

type Options struct {
	Secret       string
	Issuer       string
	SecureCookie bool
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Codec issues and verifies HS256 session tokens carrying a PublicProfile.
type Codec struct {
	secret []byte
	issuer string
	secure bool
	now    func() time.Time
}

func NewCodec(o Options) *Codec {
	now := o.Now
	if now == nil {
		now = time.Now
	}
	return &Codec{secret: []byte(o.Secret), issuer: o.Issuer, secure: o.SecureCookie, now: now}
}

// Issue signs a token for the profile, valid for TTL from now.
func (c *Codec) Issue(p entity.PublicProfile) (string, error) {
	now := c.now().UTC()
	cl := claims{
		User: p,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(p.ID, 10),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, issuer and expiry and returns the
// embedded profile. Any failure yields ErrInvalid.
func (c *Codec) Verify(tokenString string) (*entity.PublicProfile, error) {
	if tokenString == "" {
		return nil, ErrInvalid
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.issuer),
	)
	token, err := parser.ParseWithClaims(tokenString, &claims{}, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	cl, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}
	if cl.User.ID <= 0 || cl.User.Role == "" || cl.Subject != strconv.FormatInt(cl.User.ID, 10) {
		return nil, fmt.Errorf("%w: incomplete profile", ErrInvalid)
	}
	p := cl.User
	return &p, nil
}
