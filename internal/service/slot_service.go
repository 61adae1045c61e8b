package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vetlink/vetlink-api/internal/models"
	appErrors "github.com/vetlink/vetlink-api/pkg/errors"
)

type slotRepository interface {
	List(ctx context.Context, filter models.SlotFilter) ([]models.Slot, int, error)
	FindByID(ctx context.Context, id string) (*models.Slot, error)
	UpdateStatus(ctx context.Context, id string, from, to models.SlotStatus) (bool, error)
}

// SlotService covers slot listing and manual status toggles. Booked slots
// are owned by the booking engine and cannot be touched here.
type SlotService struct {
	repo   slotRepository
	logger *zap.Logger
}

// NewSlotService instantiates SlotService.
func NewSlotService(repo slotRepository, logger *zap.Logger) *SlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotService{repo: repo, logger: logger}
}

// List returns slots with pagination metadata. An empty or "ALL" status in
// the filter matches every status.
func (s *SlotService) List(ctx context.Context, filter models.SlotFilter) ([]models.Slot, *models.Pagination, error) {
	slots, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slots")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return slots, pagination, nil
}

// UpdateStatus moves a slot between the manually managed states. The update
// is conditioned on the slot's current status, so a concurrent booking or
// replacement wins the race instead of being overwritten.
func (s *SlotService) UpdateStatus(ctx context.Context, id string, to models.SlotStatus) (*models.Slot, error) {
	switch to {
	case models.SlotAvailable, models.SlotDisabled, models.SlotBlocked:
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, fmt.Sprintf("cannot manually set status %s", to))
	}

	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	if slot.Status == models.SlotBooked || slot.Status == models.SlotPending {
		return nil, appErrors.Clone(appErrors.ErrSlotNotAvailable, fmt.Sprintf("slot is %s", slot.Status))
	}
	if slot.Status == to {
		return slot, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, id, slot.Status, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update slot status")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrSlotNotAvailable, "slot status changed concurrently")
	}

	slot.Status = to
	return slot, nil
}
