package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vetlink/vetlink-api/internal/models"
	appErrors "github.com/vetlink/vetlink-api/pkg/errors"
	"github.com/vetlink/vetlink-api/pkg/export"
	"github.com/vetlink/vetlink-api/pkg/timeutil"
)

// defaultPeriodGapMinutes is the largest gap between consecutive slots that
// still joins them into one period.
// TODO: surface this as a per-provider setting once the provider profile
// schema grows preference columns.
const defaultPeriodGapMinutes = 50

type statsSlotRepository interface {
	ListForProviderRange(ctx context.Context, providerID string, from, to time.Time) ([]models.Slot, error)
}

type statsAppointmentRepository interface {
	SumFeesInRange(ctx context.Context, providerID string, from, to time.Time) (float64, error)
}

type statsProviderReader interface {
	FindByID(ctx context.Context, id string) (*models.Provider, error)
}

// StatsService derives descriptive statistics from a provider's slot set.
// It is read-only and reflects a point-in-time snapshot; it may run
// concurrently with bookings.
type StatsService struct {
	slots        statsSlotRepository
	appointments statsAppointmentRepository
	providers    statsProviderReader
	cache        *CacheService
	metrics      *MetricsService
	logger       *zap.Logger

	gapMinutes int
	cacheTTL   time.Duration

	csv *export.CSVExporter
	pdf *export.PDFExporter
}

// NewStatsService instantiates StatsService.
func NewStatsService(slots statsSlotRepository, appointments statsAppointmentRepository, providers statsProviderReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger, gapMinutes int, cacheTTL time.Duration) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gapMinutes <= 0 {
		gapMinutes = defaultPeriodGapMinutes
	}
	return &StatsService{
		slots:        slots,
		appointments: appointments,
		providers:    providers,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		gapMinutes:   gapMinutes,
		cacheTTL:     cacheTTL,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
	}
}

// ProviderStatistics computes the report for [start, end], with range bounds
// taken in the provider's timezone.
func (s *StatsService) ProviderStatistics(ctx context.Context, providerID string, start, end time.Time) (*models.ProviderStatistics, error) {
	if providerID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, "provider id is required")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, "end date before start date")
	}

	provider, err := s.providers.FindByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "provider not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load provider")
	}

	from, err := timeutil.DayStart(start, provider.Timezone)
	if err != nil {
		return nil, err
	}
	to, err := timeutil.DayEnd(end, provider.Timezone)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("stats:%s:%s:%s", providerID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached models.ProviderStatistics
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	queryStart := time.Now()
	slots, err := s.slots.ListForProviderRange(ctx, providerID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slots")
	}
	s.metrics.ObserveDBQuery("stats_slots_range", time.Since(queryStart))

	stats, err := s.aggregate(providerID, from, to, slots)
	if err != nil {
		return nil, err
	}

	stats.PotentialRevenue = float64(stats.BookedSlots) * provider.ConsultationFee
	actual, err := s.appointments.SumFeesInRange(ctx, providerID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum appointment fees")
	}
	stats.ActualRevenue = actual

	if err := s.cache.Set(ctx, cacheKey, stats, s.cacheTTL); err != nil {
		s.logger.Warn("stats cache set failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return stats, nil
}

type slotInterval struct {
	start  int
	end    int
	status models.SlotStatus
}

func (s *StatsService) aggregate(providerID string, from, to time.Time, slots []models.Slot) (*models.ProviderStatistics, error) {
	stats := &models.ProviderStatistics{
		ProviderID:     providerID,
		StartDate:      from,
		EndDate:        to,
		MostActiveHour: -1,
	}

	byDay := make(map[string][]slotInterval)
	dayDates := make(map[string]time.Time)
	var hourHist [24]int
	earliest, latest := -1, -1

	for _, slot := range slots {
		startMin, err := timeutil.ToMinutes(slot.StartTime)
		if err != nil {
			return nil, err
		}
		span, err := timeutil.SpanMinutes(slot.StartTime, slot.EndTime)
		if err != nil {
			return nil, err
		}
		hours := float64(span) / 60

		stats.TotalSlots++
		stats.TotalHours += hours
		switch slot.Status {
		case models.SlotAvailable:
			stats.AvailableSlots++
			stats.AvailableHours += hours
		case models.SlotBooked:
			stats.BookedSlots++
			stats.BookedHours += hours
		case models.SlotDisabled:
			stats.DisabledSlots++
			stats.DisabledHours += hours
		}

		hourHist[startMin/60]++
		if earliest == -1 || startMin < earliest {
			earliest = startMin
		}
		if endMin := startMin + span; latest == -1 || endMin > latest {
			latest = endMin
		}

		key := slot.Date.Format("2006-01-02")
		byDay[key] = append(byDay[key], slotInterval{start: startMin, end: startMin + span, status: slot.Status})
		if _, ok := dayDates[key]; !ok {
			dayDates[key] = slot.Date
		}
	}

	dayKeys := make([]string, 0, len(byDay))
	for key := range byDay {
		dayKeys = append(dayKeys, key)
	}
	sort.Strings(dayKeys)

	for _, key := range dayKeys {
		day := s.foldDay(dayDates[key], byDay[key])
		stats.TotalPeriods += day.Periods
		stats.Days = append(stats.Days, day)
	}

	if stats.TotalSlots > 0 {
		stats.UtilizationRate = float64(stats.BookedSlots) / float64(stats.TotalSlots)
		stats.AvailabilityRate = float64(stats.AvailableSlots) / float64(stats.TotalSlots)
		stats.EarliestSlotTime = timeutil.FormatMinutes(earliest)
		stats.LatestSlotTime = timeutil.FormatMinutes(latest)
	}
	if stats.TotalPeriods > 0 {
		stats.AveragePeriodDuration = stats.TotalHours / float64(stats.TotalPeriods)
	}

	best, bestCount := -1, 0
	for hour, count := range hourHist {
		if count > bestCount {
			best, bestCount = hour, count
		}
	}
	stats.MostActiveHour = best

	return stats, nil
}

// foldDay sorts one day's slots and folds them into periods: a gap larger
// than the threshold between the previous slot's end and the next slot's
// start begins a new period. Periods containing at least one available slot
// contribute an availability window spanning the whole period.
func (s *StatsService) foldDay(date time.Time, intervals []slotInterval) models.DayStatistics {
	day := models.DayStatistics{Date: date}

	sort.Slice(intervals, func(i, j int) bool { return intervals[i].start < intervals[j].start })

	type period struct {
		start, end   int
		hasAvailable bool
	}
	var periods []period

	for _, iv := range intervals {
		day.TotalSlots++
		day.TotalHours += float64(iv.end-iv.start) / 60
		switch iv.status {
		case models.SlotAvailable:
			day.AvailableSlots++
		case models.SlotBooked:
			day.BookedSlots++
		case models.SlotDisabled:
			day.DisabledSlots++
		}

		if len(periods) == 0 || iv.start-periods[len(periods)-1].end > s.gapMinutes {
			periods = append(periods, period{start: iv.start, end: iv.end})
		} else if iv.end > periods[len(periods)-1].end {
			periods[len(periods)-1].end = iv.end
		}
		if iv.status == models.SlotAvailable {
			periods[len(periods)-1].hasAvailable = true
		}
	}

	day.Periods = len(periods)
	for _, p := range periods {
		if !p.hasAvailable {
			continue
		}
		day.AvailableTimes = append(day.AvailableTimes, models.AvailabilityWindow{
			From: timeutil.FormatMinutes(p.start),
			To:   timeutil.FormatMinutes(p.end),
		})
	}
	return day
}

// ExportStatistics renders the per-day breakdown in the requested format and
// returns the payload with its content type.
func (s *StatsService) ExportStatistics(ctx context.Context, providerID string, start, end time.Time, format string) ([]byte, string, error) {
	stats, err := s.ProviderStatistics(ctx, providerID, start, end)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Total", "Available", "Booked", "Disabled", "Hours", "Periods"},
	}
	for _, day := range stats.Days {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":      day.Date.Format("2006-01-02"),
			"Total":     fmt.Sprintf("%d", day.TotalSlots),
			"Available": fmt.Sprintf("%d", day.AvailableSlots),
			"Booked":    fmt.Sprintf("%d", day.BookedSlots),
			"Disabled":  fmt.Sprintf("%d", day.DisabledSlots),
			"Hours":     fmt.Sprintf("%.1f", day.TotalHours),
			"Periods":   fmt.Sprintf("%d", day.Periods),
		})
	}

	switch format {
	case "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv export failed")
		}
		return payload, "text/csv", nil
	case "pdf":
		title := fmt.Sprintf("Provider schedule %s to %s", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf export failed")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrInvalidRequest, fmt.Sprintf("unsupported export format %q", format))
	}
}
