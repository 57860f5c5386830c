package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gh-notifier/gh-notifier/internal/db"
)

func newTestRepo(t *testing.T) NotificationRepository {
	t.Helper()
	database, err := db.New(db.Config{
		Path:     ":memory:",
		Logger:   zap.NewNop(),
		LogLevel: gormlogger.Silent,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(database) })
	return NewNotificationRepository(database)
}

func stored(id, receivedAt string) db.Notification {
	return db.Notification{
		ID:          id,
		Title:       "alice/web - mentioned you",
		Body:        "Fix login bug\n\nalice/web | Issue | Updated: just now",
		URL:         "https://github.com/alice/web/issues/42",
		Repository:  "alice/web",
		Reason:      "mention",
		SubjectType: "Issue",
		ReceivedAt:  receivedAt,
	}
}

func TestUpsertIfNew(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	n := stored("1", "2024-03-01T10:00:00Z")
	inserted, err := repo.UpsertIfNew(ctx, &n)
	if err != nil {
		t.Fatalf("UpsertIfNew() error = %v", err)
	}
	if !inserted {
		t.Error("inserted = false on first observation")
	}

	// Re-observing the same id changes nothing, including received_at.
	again := stored("1", "2024-03-02T10:00:00Z")
	again.Title = "changed title"
	inserted, err = repo.UpsertIfNew(ctx, &again)
	if err != nil {
		t.Fatalf("second UpsertIfNew() error = %v", err)
	}
	if inserted {
		t.Error("inserted = true on re-observation")
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("stored %d rows, want 1", len(all))
	}
	if all[0].Title != "alice/web - mentioned you" || all[0].ReceivedAt != "2024-03-01T10:00:00Z" {
		t.Errorf("row mutated on re-observation: %+v", all[0])
	}
}

func TestMarkAsRead(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	n := stored("1", "2024-03-01T10:00:00Z")
	if _, err := repo.UpsertIfNew(ctx, &n); err != nil {
		t.Fatal(err)
	}

	if err := repo.MarkAsRead(ctx, "1"); err != nil {
		t.Fatalf("MarkAsRead() error = %v", err)
	}

	read, err := repo.IsRead(ctx, "1")
	if err != nil || !read {
		t.Errorf("IsRead() = %v, %v; want true, nil", read, err)
	}

	all, _ := repo.ListAll(ctx)
	if all[0].MarkedReadAt == nil {
		t.Error("MarkedReadAt not set")
	}

	// Marking an already-read row succeeds.
	if err := repo.MarkAsRead(ctx, "1"); err != nil {
		t.Errorf("repeat MarkAsRead() error = %v", err)
	}

	if err := repo.MarkAsRead(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkAsRead(missing) = %v, want ErrNotFound", err)
	}
}

func TestMarkAllAsRead(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		n := stored(id, "2024-03-01T10:00:00Z")
		if _, err := repo.UpsertIfNew(ctx, &n); err != nil {
			t.Fatal(err)
		}
	}

	if err := repo.MarkAllAsRead(ctx); err != nil {
		t.Fatalf("MarkAllAsRead() error = %v", err)
	}
	unread, err := repo.ListUnread(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(unread) != 0 {
		t.Errorf("%d unread rows remain", len(unread))
	}
}

func TestListHistory(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	rows := []db.Notification{
		stored("1", "2024-03-01T10:00:00Z"),
		stored("2", "2024-03-02T10:00:00Z"),
		stored("3", "2024-03-03T10:00:00Z"),
	}
	rows[1].Repository = "bob/api"
	rows[2].Reason = "review_requested"
	rows[2].SubjectType = "PullRequest"
	for i := range rows {
		if _, err := repo.UpsertIfNew(ctx, &rows[i]); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.MarkAsRead(ctx, "1"); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name    string
		q       HistoryQuery
		wantIDs []string
	}{
		{"all newest first", HistoryQuery{}, []string{"3", "2", "1"}},
		{"unread only", HistoryQuery{Unread: true}, []string{"3", "2"}},
		{"read only", HistoryQuery{Read: true}, []string{"1"}},
		{"by repository", HistoryQuery{Repository: "bob/api"}, []string{"2"}},
		{"by reason", HistoryQuery{Reason: "review_requested"}, []string{"3"}},
		{"by subject type", HistoryQuery{SubjectType: "PullRequest"}, []string{"3"}},
		{"since", HistoryQuery{Since: "2024-03-02T00:00:00Z"}, []string{"3", "2"}},
		{"until", HistoryQuery{Until: "2024-03-01T23:59:59Z"}, []string{"1"}},
		{"limit", HistoryQuery{Limit: 2}, []string{"3", "2"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.ListHistory(ctx, tc.q)
			if err != nil {
				t.Fatalf("ListHistory() error = %v", err)
			}
			ids := make([]string, len(got))
			for i, n := range got {
				ids[i] = n.ID
			}
			if diff := cmp.Diff(tc.wantIDs, ids); diff != "" {
				t.Errorf("ListHistory() ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	n := stored("1", "2024-03-01T10:00:00Z")
	if _, err := repo.UpsertIfNew(ctx, &n); err != nil {
		t.Fatal(err)
	}

	if err := repo.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() = %v, want ErrNotFound", err)
	}
}

func TestDeleteByRepositoryAndAll(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	a := stored("1", "2024-03-01T10:00:00Z")
	b := stored("2", "2024-03-01T11:00:00Z")
	b.Repository = "bob/api"
	for _, n := range []*db.Notification{&a, &b} {
		if _, err := repo.UpsertIfNew(ctx, n); err != nil {
			t.Fatal(err)
		}
	}

	count, err := repo.DeleteByRepository(ctx, "alice/web")
	if err != nil || count != 1 {
		t.Errorf("DeleteByRepository() = %d, %v; want 1, nil", count, err)
	}

	count, err = repo.DeleteAll(ctx)
	if err != nil || count != 1 {
		t.Errorf("DeleteAll() = %d, %v; want 1, nil", count, err)
	}

	total, err := repo.Count(ctx)
	if err != nil || total != 0 {
		t.Errorf("Count() = %d, %v; want 0, nil", total, err)
	}
}

func TestExistsAndIsRead(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	n := stored("1", "2024-03-01T10:00:00Z")
	if _, err := repo.UpsertIfNew(ctx, &n); err != nil {
		t.Fatal(err)
	}

	ok, err := repo.Exists(ctx, "1")
	if err != nil || !ok {
		t.Errorf("Exists(1) = %v, %v", ok, err)
	}
	ok, err = repo.Exists(ctx, "2")
	if err != nil || ok {
		t.Errorf("Exists(2) = %v, %v", ok, err)
	}
	if _, err := repo.IsRead(ctx, "2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("IsRead(missing) = %v, want ErrNotFound", err)
	}
}

func TestDeleteReadOlderThan(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx := context.Background()

	old := stored("old-read", "2024-01-01T10:00:00Z")
	recent := stored("recent-read", "2024-03-01T10:00:00Z")
	unread := stored("unread", "2024-01-01T10:00:00Z")
	for _, n := range []*db.Notification{&old, &recent, &unread} {
		if _, err := repo.UpsertIfNew(ctx, n); err != nil {
			t.Fatal(err)
		}
	}
	// marked_read_at drives retention, so mark and then spread the cutoff
	// around "now".
	if err := repo.MarkAsRead(ctx, "old-read"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(1100 * time.Millisecond) // RFC3339 second granularity
	cutoff := time.Now()
	if err := repo.MarkAsRead(ctx, "recent-read"); err != nil {
		t.Fatal(err)
	}

	purged, err := repo.DeleteReadOlderThan(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteReadOlderThan() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	if ok, _ := repo.Exists(ctx, "old-read"); ok {
		t.Error("old read row survived the purge")
	}
	if ok, _ := repo.Exists(ctx, "recent-read"); !ok {
		t.Error("recent read row was purged")
	}
	if ok, _ := repo.Exists(ctx, "unread"); !ok {
		t.Error("unread row was purged")
	}
}
