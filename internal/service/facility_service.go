package service

import (
	"context"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateFacilityRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required"`
	City string `json:"city"`
}

// --- Interface ---

// FacilityService manages the HQ/branch registry.
type FacilityService interface {
	CreateFacility(ctx context.Context, req CreateFacilityRequest) (*model.Facility, error)
	GetFacility(ctx context.Context, id string) (*model.Facility, error)
	ListFacilities(ctx context.Context, facilityType string, page, limit int) ([]model.Facility, int64, error)
}

type facilityService struct {
	repo repository.FacilityRepository
}

func NewFacilityService(repo repository.FacilityRepository) FacilityService {
	return &facilityService{repo: repo}
}

// --- Implementation ---

func (s *facilityService) CreateFacility(ctx context.Context, req CreateFacilityRequest) (*model.Facility, error) {
	if req.Type != model.FacilityTypeHeadquarters && req.Type != model.FacilityTypeBranch {
		return nil, fmt.Errorf("%w: type must be HEADQUARTERS or BRANCH", ErrValidation)
	}
	if _, err := s.repo.FindByCode(ctx, req.Code); err == nil {
		return nil, fmt.Errorf("%w: facility code already exists", ErrValidation)
	}

	facility := &model.Facility{
		Code:     req.Code,
		Name:     req.Name,
		Type:     req.Type,
		City:     req.City,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, facility); err != nil {
		return nil, fmt.Errorf("failed to create facility: %w", err)
	}
	return facility, nil
}

func (s *facilityService) GetFacility(ctx context.Context, id string) (*model.Facility, error) {
	facilityID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid facility id", ErrValidation)
	}
	facility, err := s.repo.FindByID(ctx, facilityID)
	if err != nil {
		return nil, fmt.Errorf("facility not found: %w", err)
	}
	return facility, nil
}

func (s *facilityService) ListFacilities(ctx context.Context, facilityType string, page, limit int) ([]model.Facility, int64, error) {
	facilities, total, err := s.repo.List(ctx, facilityType, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch facilities: %w", err)
	}
	return facilities, total, nil
}
