package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/solecart/internal/remote"
	"github.com/angelmondragon/solecart/internal/repo"
	"github.com/angelmondragon/solecart/pkg/db"
	"github.com/angelmondragon/solecart/pkg/db/models"
	"github.com/angelmondragon/solecart/pkg/enums"
	"gorm.io/gorm"
)

const enqueueAttempts = 5

// Repository persists the offline mutation queue.
type Repository struct {
	repo.Base
	now func() time.Time
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn), now: time.Now}
}

// Enqueue appends m to the owner's queue. Seq is assigned as the owner's
// current maximum plus one; concurrent writers retry on the unique index.
// Enqueueing an id that already exists returns the stored row.
func (r *Repository) Enqueue(ctx context.Context, owner string, m remote.Mutation) (models.PendingMutation, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return models.PendingMutation{}, errors.New("queue owner is required")
	}
	if strings.TrimSpace(m.ID) == "" {
		return models.PendingMutation{}, errors.New("mutation id is required")
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return models.PendingMutation{}, fmt.Errorf("marshal mutation: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < enqueueAttempts; attempt++ {
		row, err := r.insertNext(ctx, owner, m, string(payload))
		if err == nil {
			return row, nil
		}
		if !db.IsUniqueViolation(err, "") {
			return models.PendingMutation{}, err
		}
		lastErr = err
	}
	return models.PendingMutation{}, fmt.Errorf("enqueue mutation %s: %w", m.ID, lastErr)
}

func (r *Repository) insertNext(ctx context.Context, owner string, m remote.Mutation, payload string) (models.PendingMutation, error) {
	var row models.PendingMutation
	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.PendingMutation
		err := tx.Where("id = ?", m.ID).Take(&existing).Error
		if err == nil {
			row = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var maxSeq int64
		if err := tx.Model(&models.PendingMutation{}).
			Where("owner = ?", owner).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}

		now := r.now().UTC()
		row = models.PendingMutation{
			ID:        m.ID,
			Owner:     owner,
			Seq:       maxSeq + 1,
			Kind:      m.Kind,
			Payload:   payload,
			Status:    enums.MutationStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if lineID := strings.TrimSpace(m.LineID); lineID != "" {
			row.LineID = &lineID
		}
		return tx.Create(&row).Error
	})
	return row, err
}

// Pending returns up to limit pending rows for owner in replay order.
func (r *Repository) Pending(ctx context.Context, owner string, limit int) ([]models.PendingMutation, error) {
	var rows []models.PendingMutation
	q := r.DB(ctx).
		Where("owner = ? AND status = ?", owner, enums.MutationStatusPending).
		Order("seq ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

func (r *Repository) HasPending(ctx context.Context, owner string) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.PendingMutation{}).
		Where("owner = ? AND status = ?", owner, enums.MutationStatusPending).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) MarkApplied(ctx context.Context, id string) error {
	now := r.now().UTC()
	return r.DB(ctx).
		Model(&models.PendingMutation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        enums.MutationStatusApplied,
			"applied_at":    now,
			"updated_at":    now,
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// MarkAttemptFailed records a retryable failure and leaves the row pending.
func (r *Repository) MarkAttemptFailed(ctx context.Context, id string, cause error) error {
	return r.DB(ctx).
		Model(&models.PendingMutation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    errorText(cause),
			"updated_at":    r.now().UTC(),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// MarkFailed makes the row terminal; it will not be replayed again.
func (r *Repository) MarkFailed(ctx context.Context, id string, cause error) error {
	return r.DB(ctx).
		Model(&models.PendingMutation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        enums.MutationStatusFailed,
			"last_error":    errorText(cause),
			"updated_at":    r.now().UTC(),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// DeleteTerminalBefore removes applied and failed rows last touched before cutoff.
func (r *Repository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).
		Where("status IN ? AND updated_at < ?", []enums.MutationStatus{enums.MutationStatusApplied, enums.MutationStatusFailed}, cutoff.UTC()).
		Delete(&models.PendingMutation{})
	return res.RowsAffected, res.Error
}

// decodeRow restores the mutation stored in a queue row.
func decodeRow(row models.PendingMutation) (remote.Mutation, error) {
	var m remote.Mutation
	if err := json.Unmarshal([]byte(row.Payload), &m); err != nil {
		return remote.Mutation{}, fmt.Errorf("decode queued mutation %s: %w", row.ID, err)
	}
	m.ID = row.ID
	return m, nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > 1024 {
		msg = msg[:1024]
	}
	return msg
}
