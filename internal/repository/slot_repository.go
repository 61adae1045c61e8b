package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vetlink/vetlink-api/internal/models"
)

const slotColumns = "id, provider_id, date, start_time, end_time, timezone, status, created_at"

// SlotRepository provides persistence for bookable slots.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository creates a new slot repository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// FindByID loads a slot by id.
func (r *SlotRepository) FindByID(ctx context.Context, id string) (*models.Slot, error) {
	query := fmt.Sprintf("SELECT %s FROM slots WHERE id = $1", slotColumns)
	var slot models.Slot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// FindByIDsForProvider resolves the subset of the given slot ids owned by the
// provider. Unknown or foreign ids are silently dropped.
func (r *SlotRepository) FindByIDsForProvider(ctx context.Context, providerID string, ids []string) ([]models.Slot, error) {
	query := fmt.Sprintf("SELECT %s FROM slots WHERE provider_id = $1 AND id = ANY($2)", slotColumns)
	var slots []models.Slot
	if err := r.db.SelectContext(ctx, &slots, query, providerID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find slots by ids: %w", err)
	}
	return slots, nil
}

// List returns slots matching the filter with pagination. An empty
// filter.Status matches every status.
func (r *SlotRepository) List(ctx context.Context, filter models.SlotFilter) ([]models.Slot, int, error) {
	base := "FROM slots WHERE provider_id = $1"
	args := []interface{}{filter.ProviderID}

	if filter.Date != nil {
		args = append(args, *filter.Date)
		base += fmt.Sprintf(" AND date = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		base += fmt.Sprintf(" AND status = $%d", len(args))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY date ASC, start_time ASC LIMIT %d OFFSET %d", slotColumns, base, size, offset)
	var slots []models.Slot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list slots: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count slots: %w", err)
	}

	return slots, total, nil
}

// ListForCellTx returns the slots of one (provider, day, timezone) cell with
// the given statuses, ordered by start time, within an open transaction.
func (r *SlotRepository) ListForCellTx(ctx context.Context, tx *sqlx.Tx, providerID string, day time.Time, timezone string, statuses []models.SlotStatus) ([]models.Slot, error) {
	query := fmt.Sprintf("SELECT %s FROM slots WHERE provider_id = $1 AND date = $2 AND timezone = $3 AND status = ANY($4) ORDER BY start_time ASC", slotColumns)
	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}
	var slots []models.Slot
	if err := tx.SelectContext(ctx, &slots, query, providerID, day, timezone, pq.Array(raw)); err != nil {
		return nil, fmt.Errorf("list cell slots: %w", err)
	}
	return slots, nil
}

// ListForProviderRange returns all slots for the provider with date within
// [from, to], ordered by day and start time.
func (r *SlotRepository) ListForProviderRange(ctx context.Context, providerID string, from, to time.Time) ([]models.Slot, error) {
	query := fmt.Sprintf("SELECT %s FROM slots WHERE provider_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC, start_time ASC", slotColumns)
	var slots []models.Slot
	if err := r.db.SelectContext(ctx, &slots, query, providerID, from, to); err != nil {
		return nil, fmt.Errorf("list slots in range: %w", err)
	}
	return slots, nil
}

// DeleteForCellTx bulk-deletes the cell's slots holding one of the given
// statuses and reports how many rows went away. Callers only ever pass
// AVAILABLE and DISABLED here; booked and pending rows are never touched.
func (r *SlotRepository) DeleteForCellTx(ctx context.Context, tx *sqlx.Tx, providerID string, day time.Time, timezone string, statuses []models.SlotStatus) (int, error) {
	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM slots WHERE provider_id = $1 AND date = $2 AND timezone = $3 AND status = ANY($4)", providerID, day, timezone, pq.Array(raw))
	if err != nil {
		return 0, fmt.Errorf("delete cell slots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted slots: %w", err)
	}
	return int(n), nil
}

// BulkInsertTx inserts the given slots within an open transaction.
func (r *SlotRepository) BulkInsertTx(ctx context.Context, tx *sqlx.Tx, slots []models.Slot) error {
	now := time.Now().UTC()
	for i := range slots {
		if slots[i].ID == "" {
			slots[i].ID = uuid.NewString()
		}
		if slots[i].CreatedAt.IsZero() {
			slots[i].CreatedAt = now
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO slots (id, provider_id, date, start_time, end_time, timezone, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
			slots[i].ID, slots[i].ProviderID, slots[i].Date, slots[i].StartTime, slots[i].EndTime, slots[i].Timezone, slots[i].Status, slots[i].CreatedAt)
		if err != nil {
			return fmt.Errorf("insert slot %s: %w", slots[i].ID, err)
		}
	}
	return nil
}

// ClaimTx atomically transitions a slot AVAILABLE -> BOOKED. It returns false
// when the slot is absent or no longer available, which is how concurrent
// claimers lose the race.
func (r *SlotRepository) ClaimTx(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	res, err := tx.ExecContext(ctx, "UPDATE slots SET status = $1 WHERE id = $2 AND status = $3", models.SlotBooked, id, models.SlotAvailable)
	if err != nil {
		return false, fmt.Errorf("claim slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim slot rows: %w", err)
	}
	return n == 1, nil
}

// ReleaseTx transitions a slot BOOKED -> AVAILABLE. A missing or already
// released slot yields false without error.
func (r *SlotRepository) ReleaseTx(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	res, err := tx.ExecContext(ctx, "UPDATE slots SET status = $1 WHERE id = $2 AND status = $3", models.SlotAvailable, id, models.SlotBooked)
	if err != nil {
		return false, fmt.Errorf("release slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("release slot rows: %w", err)
	}
	return n == 1, nil
}

// UpdateStatus conditionally moves a slot between non-booked states (disable,
// enable, block). The update only applies while the slot still holds `from`.
func (r *SlotRepository) UpdateStatus(ctx context.Context, id string, from, to models.SlotStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE slots SET status = $1 WHERE id = $2 AND status = $3", to, id, from)
	if err != nil {
		return false, fmt.Errorf("update slot status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update slot status rows: %w", err)
	}
	return n == 1, nil
}
