package models

import (
	"biometria/utils"
	"time"
)

const DefaultDisplayName = "Paciente"

// Enrollment holds the facial signature of one identity. A row is always
// written in full by a single statement.
type Enrollment struct {
	IdentityID     string    `gorm:"primaryKey;type:varchar(64)"`
	DisplayName    string    `gorm:"type:varchar(200)"`
	ReferencePhoto string    `gorm:"type:longtext"` // As submitted, never re-validated
	Descriptor     []byte    `gorm:"type:blob;not null"`
	EnrolledAt     time.Time `gorm:"not null"`
}

// TableName overrides the table name
func (Enrollment) TableName() string {
	return "enrollments"
}

// NewEnrollment builds a complete record stamped with the current time.
func NewEnrollment(identityID, displayName, photo string, embedding []float32) Enrollment {
	if displayName == "" {
		displayName = DefaultDisplayName
	}
	return Enrollment{
		IdentityID:     identityID,
		DisplayName:    displayName,
		ReferencePhoto: photo,
		Descriptor:     utils.EncodeEmbedding(embedding),
		EnrolledAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (e *Enrollment) Embedding() ([]float32, error) {
	return utils.DecodeEmbedding(e.Descriptor)
}

// Clone returns a deep copy, so callers never share the descriptor bytes.
func (e *Enrollment) Clone() *Enrollment {
	c := *e
	c.Descriptor = append([]byte(nil), e.Descriptor...)
	return &c
}
