package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"shortreel/internal/config"
)

// Store manages queue persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the queue database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "queue.db"))
}

// OpenPath connects to a queue database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// NewItem describes the inputs for a freshly enqueued generation job.
type NewItem struct {
	Title        string
	ScriptPath   string
	AudioPath    string
	ManifestPath string
	MusicPath    string
}

// Add inserts a new pending generation job.
func (s *Store) Add(ctx context.Context, in NewItem) (*Item, error) {
	if strings.TrimSpace(in.ScriptPath) == "" {
		return nil, errors.New("script path required")
	}
	if strings.TrimSpace(in.AudioPath) == "" {
		return nil, errors.New("audio path required")
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_items (
            title, script_path, audio_path, manifest_path, music_path,
            status, created_at, updated_at, progress_percent
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(in.Title),
		in.ScriptPath,
		in.AudioPath,
		nullableString(in.ManifestPath),
		nullableString(in.MusicPath),
		StatusPending,
		timestamp,
		timestamp,
		0.0,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

const itemColumns = `id, title, script_path, audio_path, manifest_path, music_path,
    status, error_message, created_at, updated_at,
    progress_stage, progress_percent, progress_message,
    transcript_path, plan_path, output_file, last_heartbeat,
    needs_review, review_reason`

// GetByID fetches an item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

// Update persists the item's mutable fields.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item required")
	}
	item.UpdatedAt = time.Now().UTC()

	_, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items SET
            title = ?, script_path = ?, audio_path = ?, manifest_path = ?, music_path = ?,
            status = ?, error_message = ?, updated_at = ?,
            progress_stage = ?, progress_percent = ?, progress_message = ?,
            transcript_path = ?, plan_path = ?, output_file = ?, last_heartbeat = ?,
            needs_review = ?, review_reason = ?
         WHERE id = ?`,
		item.Title,
		item.ScriptPath,
		item.AudioPath,
		nullableString(item.ManifestPath),
		nullableString(item.MusicPath),
		item.Status,
		nullableString(item.ErrorMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		nullableString(item.TranscriptPath),
		nullableString(item.PlanPath),
		nullableString(item.OutputFile),
		nullableTime(item.LastHeartbeat),
		item.NeedsReview,
		nullableString(item.ReviewReason),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item %d: %w", item.ID, err)
	}
	return nil
}

// List returns all items ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*Item, error) {
	return s.queryItems(ctx,
		`SELECT `+itemColumns+` FROM queue_items ORDER BY created_at ASC, id ASC`)
}

// ListByStatus returns items matching any of the provided statuses.
func (s *Store) ListByStatus(ctx context.Context, statuses ...Status) ([]*Item, error) {
	if len(statuses) == 0 {
		return s.List(ctx)
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		placeholders[i] = "?"
		args[i] = status
	}
	query := `SELECT ` + itemColumns + ` FROM queue_items WHERE status IN (` +
		strings.Join(placeholders, ",") + `) ORDER BY created_at ASC, id ASC`
	return s.queryItems(ctx, query, args...)
}

// NextForStatus returns the oldest item with the given status, or nil.
func (s *Store) NextForStatus(ctx context.Context, status Status) (*Item, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM queue_items WHERE status = ?
         ORDER BY created_at ASC, id ASC LIMIT 1`, status)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

// NextForStatuses returns the oldest item whose status matches any of the
// provided statuses, or nil when none are ready.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	ctx = ensureContext(ctx)
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		placeholders[i] = "?"
		args[i] = status
	}
	query := `SELECT ` + itemColumns + ` FROM queue_items WHERE status IN (` +
		strings.Join(placeholders, ",") + `) ORDER BY created_at ASC, id ASC LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) error {
	_, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove item %d: %w", id, err)
	}
	return nil
}

// Clear deletes items. When completedOnly is true only completed items are
// removed; otherwise the whole queue is dropped.
func (s *Store) Clear(ctx context.Context, completedOnly bool) (int64, error) {
	query := `DELETE FROM queue_items`
	var args []any
	if completedOnly {
		query += ` WHERE status = ?`
		args = append(args, StatusCompleted)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}

// Retry resets a failed or review item back to pending.
func (s *Store) Retry(ctx context.Context, id int64) (*Item, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d not found", id)
	}
	if item.Status != StatusFailed && item.Status != StatusReview {
		return nil, fmt.Errorf("item %d is %s, only failed or review items can be retried", id, item.Status)
	}
	item.Status = StatusPending
	item.ErrorMessage = ""
	item.NeedsReview = false
	item.ReviewReason = ""
	item.SetProgress("", "", 0)
	if err := s.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ResetStuck rolls in-flight items back to their pre-stage status after an
// unclean shutdown so work can resume from the last durable state.
func (s *Store) ResetStuck(ctx context.Context) (int64, error) {
	var total int64
	for _, tr := range stageRollbackTransitions {
		res, err := s.execWithRetry(ctx,
			`UPDATE queue_items SET status = ?, last_heartbeat = NULL, updated_at = ?
             WHERE status = ?`,
			tr.to, time.Now().UTC().Format(time.RFC3339Nano), tr.from)
		if err != nil {
			return total, fmt.Errorf("reset %s items: %w", tr.from, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}

// ReclaimStaleProcessing rolls items whose heartbeat went quiet before the
// cutoff back to their pre-stage status so a runner can pick them up again.
// Only the provided processing statuses are considered.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	eligible := make(map[Status]struct{}, len(statuses))
	for _, status := range statuses {
		eligible[status] = struct{}{}
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	cut := cutoff.UTC().Format(time.RFC3339Nano)
	var total int64
	for _, tr := range stageRollbackTransitions {
		if _, ok := eligible[tr.from]; !ok {
			continue
		}
		res, err := s.execWithRetry(ctx,
			`UPDATE queue_items
             SET status = ?, progress_percent = 0, last_heartbeat = NULL, updated_at = ?
             WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
			tr.to, now, tr.from, cut)
		if err != nil {
			return total, fmt.Errorf("reclaim %s items: %w", tr.from, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}

// Stats returns current item counts grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// UpdateHeartbeat stamps the item's liveness marker.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(ctx,
		`UPDATE queue_items SET last_heartbeat = ? WHERE id = ?`, now, id)
	if err != nil {
		return fmt.Errorf("heartbeat item %d: %w", id, err)
	}
	return nil
}

// Health aggregates queue counts per lifecycle bucket.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	var summary HealthSummary
	for status, count := range stats {
		summary.Total += count
		switch {
		case status == StatusPending:
			summary.Pending += count
		case IsProcessingStatus(status):
			summary.Processing += count
		case status == StatusFailed:
			summary.Failed += count
		case status == StatusReview:
			summary.Review += count
		case status == StatusCompleted:
			summary.Completed += count
		}
	}
	return summary, nil
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]*Item, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item            Item
		manifestPath    sql.NullString
		musicPath       sql.NullString
		errorMessage    sql.NullString
		createdAt       string
		updatedAt       string
		progressStage   sql.NullString
		progressMessage sql.NullString
		transcriptPath  sql.NullString
		planPath        sql.NullString
		outputFile      sql.NullString
		lastHeartbeat   sql.NullString
		reviewReason    sql.NullString
	)
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.ScriptPath,
		&item.AudioPath,
		&manifestPath,
		&musicPath,
		&item.Status,
		&errorMessage,
		&createdAt,
		&updatedAt,
		&progressStage,
		&item.ProgressPercent,
		&progressMessage,
		&transcriptPath,
		&planPath,
		&outputFile,
		&lastHeartbeat,
		&item.NeedsReview,
		&reviewReason,
	)
	if err != nil {
		return nil, err
	}

	item.ManifestPath = manifestPath.String
	item.MusicPath = musicPath.String
	item.ErrorMessage = errorMessage.String
	item.ProgressStage = progressStage.String
	item.ProgressMessage = progressMessage.String
	item.TranscriptPath = transcriptPath.String
	item.PlanPath = planPath.String
	item.OutputFile = outputFile.String
	item.ReviewReason = reviewReason.String

	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		item.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		item.UpdatedAt = ts
	}
	if lastHeartbeat.Valid {
		if ts, err := time.Parse(time.RFC3339Nano, lastHeartbeat.String); err == nil {
			item.LastHeartbeat = &ts
		}
	}
	return &item, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}
