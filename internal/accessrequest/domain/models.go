package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Access-request workflow statuses. Approval happens out of band;
// this service only ever creates PENDING rows.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

const DefaultCountry = "ESP"

type AccessRequest struct {
	ID                      snowflake.ID `gorm:"primaryKey" json:"id"`
	Status                  string       `gorm:"not null;index" json:"status"`
	CompanyName             string       `gorm:"not null" json:"company_name"`
	LegalName               string       `json:"legal_name,omitempty"`
	CIF                     string       `gorm:"column:cif;not null" json:"cif"`
	Address                 string       `json:"address,omitempty"`
	City                    string       `json:"city,omitempty"`
	Country                 string       `gorm:"not null" json:"country"`
	PropertyType            string       `json:"property_type,omitempty"`
	RoomsCount              *int         `gorm:"column:rooms_count" json:"rooms_count,omitempty"`
	Website                 string       `json:"website,omitempty"`
	ContactName             string       `gorm:"not null" json:"contact_name"`
	ContactRole             string       `json:"contact_role,omitempty"`
	Email                   string       `gorm:"not null;index" json:"email"`
	Phone                   string       `json:"phone,omitempty"`
	AcceptedTerms           bool         `gorm:"not null" json:"accepted_terms"`
	AcceptedProfessionalUse bool         `gorm:"not null" json:"accepted_professional_use"`
	Notes                   string       `json:"notes,omitempty"`
	CreatedAt               time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt               time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AccessRequest) TableName() string {
	return "access_requests"
}
