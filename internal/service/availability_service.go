package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/vetlink/vetlink-api/internal/models"
	appErrors "github.com/vetlink/vetlink-api/pkg/errors"
	"github.com/vetlink/vetlink-api/pkg/timeutil"
)

type availabilitySlotRepository interface {
	FindByIDsForProvider(ctx context.Context, providerID string, ids []string) ([]models.Slot, error)
	ListForCellTx(ctx context.Context, tx *sqlx.Tx, providerID string, day time.Time, timezone string, statuses []models.SlotStatus) ([]models.Slot, error)
	DeleteForCellTx(ctx context.Context, tx *sqlx.Tx, providerID string, day time.Time, timezone string, statuses []models.SlotStatus) (int, error)
	BulkInsertTx(ctx context.Context, tx *sqlx.Tx, slots []models.Slot) error
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// ReplacePeriodsRequest describes a provider's new availability window for
// the days the affected slots fall on. SlotDuration and BufferBetweenSlots
// are pointers so an explicit zero buffer is distinguishable from an omitted
// field, which falls back to the configured default.
type ReplacePeriodsRequest struct {
	ProviderID         string   `json:"provider_id" validate:"required"`
	AffectedSlotIDs    []string `json:"affected_slot_ids" validate:"required,min=1,dive,required"`
	StartTime          string   `json:"start_time" validate:"required"`
	EndTime            string   `json:"end_time" validate:"required"`
	SlotDuration       *int     `json:"slot_duration" validate:"omitempty,gt=0"`
	BufferBetweenSlots *int     `json:"buffer_between_slots" validate:"omitempty,gte=0"`
}

// AvailabilityService reconciles a provider's requested schedule against the
// persisted slot set, one (day, timezone) cell at a time. Booked slots are
// never deleted or altered here.
type AvailabilityService struct {
	tx        txRunner
	slots     availabilitySlotRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	defaultSlotDuration int
	defaultBuffer       int
}

// NewAvailabilityService instantiates AvailabilityService.
func NewAvailabilityService(tx txRunner, slots availabilitySlotRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, defaultSlotDuration, defaultBuffer int) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultSlotDuration <= 0 {
		defaultSlotDuration = 30
	}
	if defaultBuffer < 0 {
		defaultBuffer = 0
	}
	return &AvailabilityService{
		tx:                  tx,
		slots:               slots,
		cache:               cache,
		metrics:             metrics,
		validator:           validate,
		logger:              logger,
		defaultSlotDuration: defaultSlotDuration,
		defaultBuffer:       defaultBuffer,
	}
}

// ReplacePeriods reconciles every cell touched by the affected slots with the
// requested window. Cells commit independently; the result reports each
// cell's outcome plus overall totals for the committed ones.
func (s *AvailabilityService) ReplacePeriods(ctx context.Context, req ReplacePeriodsRequest) (*models.ReplacePeriodsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, "invalid availability payload")
	}

	duration := s.defaultSlotDuration
	if req.SlotDuration != nil {
		duration = *req.SlotDuration
	}
	buffer := s.defaultBuffer
	if req.BufferBetweenSlots != nil {
		buffer = *req.BufferBetweenSlots
	}

	// Validates the window (format and ordering) before any mutation.
	candidates, err := GenerateSlots(req.StartTime, req.EndTime, duration, buffer)
	if err != nil {
		return nil, err
	}

	affected, err := s.slots.FindByIDsForProvider(ctx, req.ProviderID, req.AffectedSlotIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve affected slots")
	}
	if len(affected) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoMatchingSlots, "none of the affected slots belong to the provider")
	}

	cells := groupCells(affected)

	result := &models.ReplacePeriodsResult{}
	for _, cell := range cells {
		cellResult := s.replaceCell(ctx, req.ProviderID, cell, candidates)
		result.Cells = append(result.Cells, cellResult)
		if cellResult.Error == "" {
			result.PreservedBooked += cellResult.PreservedBooked
			result.Deleted += cellResult.Deleted
			result.Created += cellResult.Created
		}
	}
	return result, nil
}

// replaceCell reconciles one (day, timezone) cell inside its own
// transaction. A failure aborts this cell only.
func (s *AvailabilityService) replaceCell(ctx context.Context, providerID string, cell models.CellKey, candidates []SlotWindow) models.CellResult {
	result := models.CellResult{Day: cell.Day, Timezone: cell.Timezone}

	err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		preserved, err := s.slots.ListForCellTx(ctx, tx, providerID, cell.Day, cell.Timezone, []models.SlotStatus{models.SlotBooked, models.SlotPending})
		if err != nil {
			return err
		}
		booked := 0
		for _, p := range preserved {
			if p.Status == models.SlotBooked {
				booked++
			}
		}

		deleted, err := s.slots.DeleteForCellTx(ctx, tx, providerID, cell.Day, cell.Timezone, []models.SlotStatus{models.SlotAvailable, models.SlotDisabled})
		if err != nil {
			return err
		}

		fresh, err := buildNonConflictingSlots(providerID, cell, candidates, preserved)
		if err != nil {
			return err
		}
		if err := s.slots.BulkInsertTx(ctx, tx, fresh); err != nil {
			return err
		}

		result.PreservedBooked = booked
		result.Deleted = deleted
		result.Created = len(fresh)
		return nil
	})
	if err != nil {
		s.logger.Warn("availability cell aborted",
			zap.String("provider_id", providerID),
			zap.Time("day", cell.Day),
			zap.String("timezone", cell.Timezone),
			zap.Error(err))
		s.metrics.RecordReplacementCell("aborted")
		result.Error = appErrors.FromError(err).Message
		return result
	}

	s.metrics.RecordReplacementCell("committed")
	s.invalidateStats(ctx, providerID)
	return result
}

// buildNonConflictingSlots turns candidate windows into AVAILABLE slots for
// the cell, skipping any candidate that overlaps a preserved slot so already
// committed times are never re-offered.
func buildNonConflictingSlots(providerID string, cell models.CellKey, candidates []SlotWindow, preserved []models.Slot) ([]models.Slot, error) {
	type interval struct{ start, end int }
	kept := make([]interval, 0, len(preserved))
	for _, p := range preserved {
		start, err := timeutil.ToMinutes(p.StartTime)
		if err != nil {
			return nil, err
		}
		span, err := timeutil.SpanMinutes(p.StartTime, p.EndTime)
		if err != nil {
			return nil, err
		}
		kept = append(kept, interval{start: start, end: start + span})
	}

	var fresh []models.Slot
	for _, cand := range candidates {
		start, err := timeutil.ToMinutes(cand.StartTime)
		if err != nil {
			return nil, err
		}
		span, err := timeutil.SpanMinutes(cand.StartTime, cand.EndTime)
		if err != nil {
			return nil, err
		}
		end := start + span

		conflict := false
		for _, k := range kept {
			if timeutil.IntervalsOverlap(start, end, k.start, k.end) {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		fresh = append(fresh, models.Slot{
			ProviderID: providerID,
			Date:       cell.Day,
			StartTime:  cand.StartTime,
			EndTime:    cand.EndTime,
			Timezone:   cell.Timezone,
			Status:     models.SlotAvailable,
		})
	}
	return fresh, nil
}

// groupCells buckets slots by (day, timezone) and returns the cells in a
// stable order.
func groupCells(slots []models.Slot) []models.CellKey {
	seen := make(map[string]models.CellKey)
	for _, slot := range slots {
		key := fmt.Sprintf("%s|%s", slot.Date.Format("2006-01-02"), slot.Timezone)
		if _, ok := seen[key]; !ok {
			seen[key] = models.CellKey{Day: slot.Date, Timezone: slot.Timezone}
		}
	}
	cells := make([]models.CellKey, 0, len(seen))
	for _, cell := range seen {
		cells = append(cells, cell)
	}
	sort.Slice(cells, func(i, j int) bool {
		if !cells[i].Day.Equal(cells[j].Day) {
			return cells[i].Day.Before(cells[j].Day)
		}
		return cells[i].Timezone < cells[j].Timezone
	})
	return cells
}

func (s *AvailabilityService) invalidateStats(ctx context.Context, providerID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("stats:%s:*", providerID)); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.String("provider_id", providerID), zap.Error(err))
	}
}
