package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type SubmitRequest struct {
	CompanyName             string `json:"company_name"`
	LegalName               string `json:"legal_name"`
	CIF                     string `json:"cif"`
	Address                 string `json:"address"`
	City                    string `json:"city"`
	Country                 string `json:"country"`
	PropertyType            string `json:"property_type"`
	RoomsCount              *int   `json:"rooms_count"`
	Website                 string `json:"website"`
	ContactName             string `json:"contact_name"`
	ContactRole             string `json:"contact_role"`
	Email                   string `json:"email"`
	Phone                   string `json:"phone"`
	AcceptedTerms           bool   `json:"accepted_terms"`
	AcceptedProfessionalUse bool   `json:"accepted_professional_use"`
	Notes                   string `json:"notes"`
}

type SubmitResult struct {
	ID        snowflake.ID `json:"id"`
	Duplicate bool         `json:"duplicate"`
}

type Service interface {
	// Submit validates and stores a new PENDING request. A PENDING row
	// already held for the same email is returned as a duplicate instead
	// of inserting. The check is best effort, not a uniqueness guarantee.
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
}
