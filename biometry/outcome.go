package biometry

import (
	"biometria/matcher"
	"time"
)

// Outcome is a non-error result of an operation.
type Outcome string

const (
	Enrolled       Outcome = "enrolled"
	Verified       Outcome = "verified"
	NoFaceDetected Outcome = "no_face_detected"
	NoEnrollment   Outcome = "no_enrollment"
)

type EnrollRequest struct {
	IdentityID  string
	DisplayName string
	Photo       string // base64, optionally a data URL
}

type EnrollResult struct {
	Outcome      Outcome
	QualityScore float64
	Hints        []string // Set when no face was detected
}

type VerifyRequest struct {
	IdentityID string
	Photo      string
}

type VerifyResult struct {
	Outcome  Outcome
	Decision matcher.Decision // Valid when Outcome is Verified
	Hints    []string
}

type StatusResult struct {
	Enrolled    bool
	EnrolledAt  time.Time
	DisplayName string
}

type DeleteResult struct {
	Removed int64
}

type BackupResult struct {
	Artifact string
	Location string
	Records  int
}
