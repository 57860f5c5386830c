package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gh-notifier/gh-notifier/internal/db"
)

// NotificationRepository is the durable, indexed store of observed inbox
// items with their read/unread lifecycle.
type NotificationRepository interface {
	// UpsertIfNew inserts the notification and reports whether the row did
	// not previously exist. Re-observing a known id is a no-op — received_at
	// and every other column stay frozen — and returns false. The existence
	// check and the insert are one atomic statement, so concurrent callers
	// cannot both observe "new".
	UpsertIfNew(ctx context.Context, n *db.Notification) (bool, error)

	ListAll(ctx context.Context) ([]db.Notification, error)
	ListUnread(ctx context.Context) ([]db.Notification, error)
	ListHistory(ctx context.Context, q HistoryQuery) ([]db.Notification, error)

	// MarkAsRead sets is_read and marked_read_at on one row. Marking an
	// already-read row is a success (the desired state is already met).
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context) error

	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
	DeleteByRepository(ctx context.Context, repository string) (int64, error)

	Count(ctx context.Context) (int64, error)
	Exists(ctx context.Context, id string) (bool, error)
	IsRead(ctx context.Context, id string) (bool, error)

	// DeleteReadOlderThan purges read rows whose marked_read_at precedes t.
	// Called periodically by the retention job to bound table growth.
	DeleteReadOlderThan(ctx context.Context, t time.Time) (int64, error)
}

// gormNotificationRepository is the GORM implementation of
// NotificationRepository.
type gormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a NotificationRepository backed by the
// provided *gorm.DB.
func NewNotificationRepository(database *gorm.DB) NotificationRepository {
	return &gormNotificationRepository{db: database}
}

func (r *gormNotificationRepository) UpsertIfNew(ctx context.Context, n *db.Notification) (bool, error) {
	// INSERT ... ON CONFLICT (id) DO NOTHING — linearizable on the single
	// SQLite connection. RowsAffected distinguishes insert from no-op.
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(n)
	if result.Error != nil {
		return false, fmt.Errorf("notifications: upsert: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *gormNotificationRepository) ListAll(ctx context.Context) ([]db.Notification, error) {
	var items []db.Notification
	if err := r.db.WithContext(ctx).
		Order("received_at DESC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("notifications: list all: %w", err)
	}
	return items, nil
}

func (r *gormNotificationRepository) ListUnread(ctx context.Context) ([]db.Notification, error) {
	var items []db.Notification
	if err := r.db.WithContext(ctx).
		Where("is_read = ?", false).
		Order("received_at DESC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("notifications: list unread: %w", err)
	}
	return items, nil
}

func (r *gormNotificationRepository) ListHistory(ctx context.Context, q HistoryQuery) ([]db.Notification, error) {
	tx := r.db.WithContext(ctx).Model(&db.Notification{})

	switch {
	case q.Unread:
		tx = tx.Where("is_read = ?", false)
	case q.Read:
		tx = tx.Where("is_read = ?", true)
	}
	if q.Repository != "" {
		tx = tx.Where("repository = ?", q.Repository)
	}
	if q.Reason != "" {
		tx = tx.Where("reason = ?", q.Reason)
	}
	if q.SubjectType != "" {
		tx = tx.Where("subject_type = ?", q.SubjectType)
	}
	if q.Since != "" {
		tx = tx.Where("received_at >= ?", q.Since)
	}
	if q.Until != "" {
		tx = tx.Where("received_at <= ?", q.Until)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var items []db.Notification
	if err := tx.Order("received_at DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("notifications: list history: %w", err)
	}
	return items, nil
}

func (r *gormNotificationRepository) MarkAsRead(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	result := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_read": true, "marked_read_at": now})
	if result.Error != nil {
		return fmt.Errorf("notifications: mark as read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormNotificationRepository) MarkAllAsRead(ctx context.Context) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if err := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("is_read = ?", false).
		Updates(map[string]any{"is_read": true, "marked_read_at": now}).Error; err != nil {
		return fmt.Errorf("notifications: mark all as read: %w", err)
	}
	return nil
}

func (r *gormNotificationRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&db.Notification{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("notifications: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormNotificationRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&db.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notifications: delete all: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormNotificationRepository) DeleteByRepository(ctx context.Context, repository string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("repository = ?", repository).
		Delete(&db.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notifications: delete by repository: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormNotificationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("notifications: count: %w", err)
	}
	return count, nil
}

func (r *gormNotificationRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("notifications: exists: %w", err)
	}
	return count > 0, nil
}

func (r *gormNotificationRepository) IsRead(ctx context.Context, id string) (bool, error) {
	var n db.Notification
	err := r.db.WithContext(ctx).
		Select("is_read").
		First(&n, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("notifications: is read: %w", err)
	}
	return n.IsRead, nil
}

func (r *gormNotificationRepository) DeleteReadOlderThan(ctx context.Context, t time.Time) (int64, error) {
	cutoff := t.UTC().Format(time.RFC3339)
	result := r.db.WithContext(ctx).
		Where("is_read = ? AND marked_read_at IS NOT NULL AND marked_read_at < ?", true, cutoff).
		Delete(&db.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notifications: delete read older than: %w", result.Error)
	}
	return result.RowsAffected, nil
}
