package service

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreatePartnerRequest struct {
	FacilityID    string `json:"facility_id" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Type          string `json:"type" binding:"required"`
	TaxCode       string `json:"tax_code"`
	CompanyName   string `json:"company_name"`
	BankAccount   string `json:"bank_account"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
}

type UpdatePartnerRequest struct {
	Name          *string `json:"name"`
	Type          *string `json:"type"`
	TaxCode       *string `json:"tax_code"`
	CompanyName   *string `json:"company_name"`
	BankAccount   *string `json:"bank_account"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
}

type PartnerResponse struct {
	ID            uuid.UUID `json:"id"`
	FacilityID    uuid.UUID `json:"facility_id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	TaxCode       string    `json:"tax_code"`
	CompanyName   string    `json:"company_name"`
	BankAccount   string    `json:"bank_account"`
	ContactPerson string    `json:"contact_person"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// --- Interface ---

// PartnerService manages vendor/customer records. New records are created
// PENDING and surface in the approval queue; the decision itself goes
// through the queue, not through this service.
type PartnerService interface {
	CreatePartner(ctx context.Context, userID string, req CreatePartnerRequest) (PartnerResponse, error)
	UpdatePartner(ctx context.Context, id string, req UpdatePartnerRequest) (PartnerResponse, error)
	DeletePartner(ctx context.Context, id string) error
	GetPartners(ctx context.Context, partnerType, search string, page, limit int) ([]PartnerResponse, int64, error)
}

// --- Implementation ---

type partnerService struct {
	partnerRepo repository.PartnerRepository
}

func NewPartnerService(partnerRepo repository.PartnerRepository) PartnerService {
	return &partnerService{partnerRepo: partnerRepo}
}

var validPartnerTypes = map[string]bool{
	model.PartnerTypeVendor:   true,
	model.PartnerTypeCustomer: true,
	model.PartnerTypeBoth:     true,
}

// --- CRUD ---

func (s *partnerService) CreatePartner(ctx context.Context, userID string, req CreatePartnerRequest) (PartnerResponse, error) {
	facilityID, err := uuid.Parse(req.FacilityID)
	if err != nil {
		return PartnerResponse{}, fmt.Errorf("%w: invalid facility_id", ErrValidation)
	}
	if !validPartnerTypes[req.Type] {
		return PartnerResponse{}, fmt.Errorf("%w: type must be one of: VENDOR, CUSTOMER, BOTH", ErrValidation)
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return PartnerResponse{}, fmt.Errorf("%w: invalid email format", ErrValidation)
		}
	}

	var requesterID *uuid.UUID
	if userID != "" {
		if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
			requesterID = &parsed
		}
	}

	partner := &model.Partner{
		FacilityID:    facilityID,
		Name:          req.Name,
		Type:          req.Type,
		TaxCode:       req.TaxCode,
		CompanyName:   req.CompanyName,
		BankAccount:   req.BankAccount,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Status:        model.PartnerStatusPending,
		RequestedBy:   requesterID,
	}

	if err := s.partnerRepo.Create(ctx, partner); err != nil {
		return PartnerResponse{}, fmt.Errorf("failed to create vendor record: %w", err)
	}

	return toPartnerResponse(*partner), nil
}

func (s *partnerService) UpdatePartner(ctx context.Context, id string, req UpdatePartnerRequest) (PartnerResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return PartnerResponse{}, fmt.Errorf("%w: invalid vendor record id", ErrValidation)
	}

	partner, err := s.partnerRepo.FindByID(ctx, uid)
	if err != nil {
		return PartnerResponse{}, fmt.Errorf("vendor record not found: %w", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return PartnerResponse{}, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		partner.Name = *req.Name
	}
	if req.Type != nil {
		if !validPartnerTypes[*req.Type] {
			return PartnerResponse{}, fmt.Errorf("%w: type must be one of: VENDOR, CUSTOMER, BOTH", ErrValidation)
		}
		partner.Type = *req.Type
	}
	if req.Email != nil && *req.Email != "" {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			return PartnerResponse{}, fmt.Errorf("%w: invalid email format", ErrValidation)
		}
		partner.Email = *req.Email
	} else if req.Email != nil {
		partner.Email = ""
	}
	if req.TaxCode != nil {
		partner.TaxCode = *req.TaxCode
	}
	if req.CompanyName != nil {
		partner.CompanyName = *req.CompanyName
	}
	if req.BankAccount != nil {
		partner.BankAccount = *req.BankAccount
	}
	if req.ContactPerson != nil {
		partner.ContactPerson = *req.ContactPerson
	}
	if req.Phone != nil {
		partner.Phone = *req.Phone
	}

	if err := s.partnerRepo.Update(ctx, partner); err != nil {
		return PartnerResponse{}, fmt.Errorf("failed to update vendor record: %w", err)
	}

	return toPartnerResponse(*partner), nil
}

func (s *partnerService) DeletePartner(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid vendor record id", ErrValidation)
	}
	return s.partnerRepo.Delete(ctx, uid)
}

func (s *partnerService) GetPartners(ctx context.Context, partnerType, search string, page, limit int) ([]PartnerResponse, int64, error) {
	partners, total, err := s.partnerRepo.List(ctx, partnerType, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch vendor records: %w", err)
	}

	res := make([]PartnerResponse, 0, len(partners))
	for _, p := range partners {
		res = append(res, toPartnerResponse(p))
	}

	return res, total, nil
}

// --- Response mappers ---

func toPartnerResponse(p model.Partner) PartnerResponse {
	return PartnerResponse{
		ID:            p.ID,
		FacilityID:    p.FacilityID,
		Name:          p.Name,
		Type:          p.Type,
		TaxCode:       p.TaxCode,
		CompanyName:   p.CompanyName,
		BankAccount:   p.BankAccount,
		ContactPerson: p.ContactPerson,
		Phone:         p.Phone,
		Email:         p.Email,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
