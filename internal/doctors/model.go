package doctors

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrDoctorNotFound is returned when a doctor does not exist.
	ErrDoctorNotFound = errors.New("doctor not found")

	// ErrAssistantNotFound is returned when an assistant does not exist.
	ErrAssistantNotFound = errors.New("assistant not found")
)

// Doctor is a practitioner profile. ConsultationFee feeds revenue figures on
// the dashboard; UserID links the profile to a login account.
type Doctor struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	ClinicID        int64     `json:"clinic_id"`
	Name            string    `json:"name"`
	Specialization  string    `json:"specialization"`
	Qualification   string    `json:"qualification"`
	ExperienceYears int       `json:"experience_years"`
	ConsultationFee float64   `json:"consultation_fee"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	CreatedAt       time.Time `json:"created_at"`
}

// Assistant is a front-desk profile attached to a clinic.
type Assistant struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ClinicID  int64     `json:"clinic_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateDoctorRequest carries a new doctor profile.
type CreateDoctorRequest struct {
	UserID          int64   `json:"user_id"`
	ClinicID        int64   `json:"clinic_id"`
	Name            string  `json:"name"`
	Specialization  string  `json:"specialization"`
	Qualification   string  `json:"qualification"`
	ExperienceYears int     `json:"experience_years"`
	ConsultationFee float64 `json:"consultation_fee"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
}

// Validate checks the request before it reaches the repository.
func (r *CreateDoctorRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.ClinicID <= 0 {
		return errors.New("clinic_id is required")
	}
	if r.ExperienceYears < 0 {
		return errors.New("experience_years cannot be negative")
	}
	if r.ConsultationFee < 0 {
		return errors.New("consultation_fee cannot be negative")
	}
	return nil
}

// CreateAssistantRequest carries a new assistant profile.
type CreateAssistantRequest struct {
	UserID   int64  `json:"user_id"`
	ClinicID int64  `json:"clinic_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Validate checks the request before it reaches the repository.
func (r *CreateAssistantRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.ClinicID <= 0 {
		return errors.New("clinic_id is required")
	}
	return nil
}
