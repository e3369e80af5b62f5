package repository

import (
	"context"

	"github.com/debacu/evalgate/internal/accessrequest/domain"
	"gorm.io/gorm"
)

const selectColumns = `id, status, company_name, legal_name, cif, address, city, country, property_type,
	rooms_count, website, contact_name, contact_role, email, phone,
	accepted_terms, accepted_professional_use, notes, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, request *domain.AccessRequest) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO access_requests (id, status, company_name, legal_name, cif, address, city, country, property_type,
		 rooms_count, website, contact_name, contact_role, email, phone,
		 accepted_terms, accepted_professional_use, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		request.ID,
		request.Status,
		request.CompanyName,
		request.LegalName,
		request.CIF,
		request.Address,
		request.City,
		request.Country,
		request.PropertyType,
		request.RoomsCount,
		request.Website,
		request.ContactName,
		request.ContactRole,
		request.Email,
		request.Phone,
		request.AcceptedTerms,
		request.AcceptedProfessionalUse,
		request.Notes,
		request.CreatedAt,
		request.UpdatedAt,
	).Error
}

func (r *repo) FindPendingByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.AccessRequest, error) {
	var request domain.AccessRequest
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM access_requests
		 WHERE email = ? AND status = ?
		 ORDER BY created_at DESC
		 LIMIT 1`,
		email,
		domain.StatusPending,
	).Scan(&request).Error
	if err != nil {
		return nil, err
	}
	if request.ID == 0 {
		return nil, nil
	}
	return &request, nil
}
