package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/debacu/evalgate/internal/accessrequest/domain"
	"github.com/debacu/evalgate/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var propertyTypes = map[string]struct{}{
	"HOTEL":      {},
	"RURAL":      {},
	"APARTMENTS": {},
	"HOSTEL":     {},
	"OTHER":      {},
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("accessrequest.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.SubmitResult, error) {
	companyName := strings.TrimSpace(req.CompanyName)
	cif := strings.TrimSpace(req.CIF)
	contactName := strings.TrimSpace(req.ContactName)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	country := strings.ToUpper(strings.TrimSpace(req.Country))
	if country == "" {
		country = domain.DefaultCountry
	}
	propertyType := strings.ToUpper(strings.TrimSpace(req.PropertyType))

	fields := map[string]string{}
	if companyName == "" {
		fields["company_name"] = "required"
	}
	if cif == "" {
		fields["cif"] = "required"
	}
	if contactName == "" {
		fields["contact_name"] = "required"
	}
	switch {
	case email == "":
		fields["email"] = "required"
	case !emailPattern.MatchString(email):
		fields["email"] = "invalid"
	}
	if !req.AcceptedTerms {
		fields["accepted_terms"] = "must be accepted"
	}
	if !req.AcceptedProfessionalUse {
		fields["accepted_professional_use"] = "must be accepted"
	}
	if propertyType != "" {
		if _, ok := propertyTypes[propertyType]; !ok {
			fields["property_type"] = "unknown property type"
		}
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	existing, err := s.repo.FindPendingByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &domain.SubmitResult{ID: existing.ID, Duplicate: true}, nil
	}

	now := s.clock.Now()
	request := &domain.AccessRequest{
		ID:                      s.genID.Generate(),
		Status:                  domain.StatusPending,
		CompanyName:             companyName,
		LegalName:               strings.TrimSpace(req.LegalName),
		CIF:                     cif,
		Address:                 strings.TrimSpace(req.Address),
		City:                    strings.TrimSpace(req.City),
		Country:                 country,
		PropertyType:            propertyType,
		RoomsCount:              req.RoomsCount,
		Website:                 strings.TrimSpace(req.Website),
		ContactName:             contactName,
		ContactRole:             strings.TrimSpace(req.ContactRole),
		Email:                   email,
		Phone:                   strings.TrimSpace(req.Phone),
		AcceptedTerms:           req.AcceptedTerms,
		AcceptedProfessionalUse: req.AcceptedProfessionalUse,
		Notes:                   strings.TrimSpace(req.Notes),
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	if err := s.repo.Insert(ctx, s.db, request); err != nil {
		return nil, err
	}

	s.log.Info("access request submitted",
		zap.String("id", request.ID.String()),
		zap.String("country", request.Country),
	)

	return &domain.SubmitResult{ID: request.ID, Duplicate: false}, nil
}
