package domain

import (
	"strings"
	"time"
)

// Role distinguishes doctors, who see every patient record, from patients,
// who only see the records they own.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// ParseRole normalises a role name. An empty value yields RolePatient.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case "", RolePatient:
		return RolePatient, true
	case RoleDoctor:
		return RoleDoctor, true
	default:
		return "", false
	}
}

func (r Role) Valid() bool {
	return r == RoleDoctor || r == RolePatient
}

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Identity is the caller a request acts on behalf of.
type Identity struct {
	UserID int64
	Role   Role
}

func (i Identity) IsDoctor() bool {
	return i.Role == RoleDoctor
}
