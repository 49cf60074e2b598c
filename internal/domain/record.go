package domain

import "time"

// PatientRecord is a symptom report attached to exactly one owning user.
type PatientRecord struct {
	ID          int64
	OwnerUserID int64
	Name        string
	Phone       string
	Symptoms    string
	CreatedAt   time.Time
}

// VisibleTo reports whether the identity may read or delete the record.
func (r PatientRecord) VisibleTo(id Identity) bool {
	return id.IsDoctor() || (id.Role == RolePatient && r.OwnerUserID == id.UserID)
}
