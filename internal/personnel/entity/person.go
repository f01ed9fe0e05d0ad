package entity

import (
	"strings"
	"time"
)

// Role is the personnel category. The personal table stores the Spanish
// names (see Stored).
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleTechnician Role = "TECHNICIAN"
	RoleClient     Role = "CLIENT"
)

// ParseRole accepts both the API names and the stored names.
func ParseRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADMIN":
		return RoleAdmin, true
	case "TECNICO", "TECHNICIAN":
		return RoleTechnician, true
	case "CLIENTE", "CLIENT":
		return RoleClient, true
	}
	return "", false
}

// Stored is the value kept in personal.categoria.
func (r Role) Stored() string {
	switch r {
	case RoleTechnician:
		return "TECNICO"
	case RoleClient:
		return "CLIENTE"
	}
	return string(r)
}

// Level is the rank used by hierarchical checks; unknown roles rank 0.
func (r Role) Level() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleTechnician:
		return 2
	case RoleClient:
		return 1
	}
	return 0
}

// Person is a personal row. Password is the stored credential: a bcrypt
// hash, the legacy sentinel or nothing.
type Person struct {
	ID          int64
	Name        string
	Title       string
	Email       string
	Role        Role
	Institution string
	Password    *string
	Active      bool
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

// Profile strips the credential.
func (p *Person) Profile() PublicProfile {
	return PublicProfile{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		Role:        p.Role,
		Institution: p.Institution,
		Title:       p.Title,
	}
}

// PublicProfile is what leaves the personnel package: session claims,
// login responses, request context.
type PublicProfile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	Institution string `json:"institution"`
	Title       string `json:"title"`
}
