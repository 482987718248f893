package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rdburn/internal/db"
	"rdburn/internal/domain"
)

// SQLiteSnapshotRepo implements SnapshotRepo over a db.DBTX.
type SQLiteSnapshotRepo struct {
	db db.DBTX
}

// NewSQLiteSnapshotRepo creates a new SQLiteSnapshotRepo.
func NewSQLiteSnapshotRepo(dbtx db.DBTX) *SQLiteSnapshotRepo {
	return &SQLiteSnapshotRepo{db: dbtx}
}

const snapshotColumns = `date, project_id, total_estimated_hours, completed_hours, remaining_hours,
	new_tickets_hours, changed_hours, deleted_hours, active_ticket_count, completed_ticket_count`

func (r *SQLiteSnapshotRepo) Upsert(ctx context.Context, s *domain.DailySnapshot) error {
	query := `INSERT INTO daily_snapshots (` + snapshotColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, project_id) DO UPDATE SET
			total_estimated_hours = excluded.total_estimated_hours,
			completed_hours = excluded.completed_hours,
			remaining_hours = excluded.remaining_hours,
			new_tickets_hours = excluded.new_tickets_hours,
			changed_hours = excluded.changed_hours,
			deleted_hours = excluded.deleted_hours,
			active_ticket_count = excluded.active_ticket_count,
			completed_ticket_count = excluded.completed_ticket_count,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		domain.DateOf(s.Date).Format(dateLayout),
		s.ProjectID,
		s.TotalEstimatedHours,
		s.CompletedHours,
		s.RemainingHours,
		s.NewTicketsHours,
		s.ChangedHours,
		s.DeletedHours,
		s.ActiveTicketCount,
		s.CompletedTicketCount,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting snapshot: %w", err)
	}
	return nil
}

func (r *SQLiteSnapshotRepo) GetByDate(ctx context.Context, projectID int, day time.Time) (*domain.DailySnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM daily_snapshots
		WHERE project_id = ? AND date = ?`
	row := r.db.QueryRowContext(ctx, query, projectID, domain.DateOf(day).Format(dateLayout))
	s, err := scanSnapshotColumns(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *SQLiteSnapshotRepo) ListByProject(ctx context.Context, projectID int) ([]domain.DailySnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM daily_snapshots
		WHERE project_id = ? ORDER BY date`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.DailySnapshot
	for rows.Next() {
		s, err := scanSnapshotColumns(rows.Scan)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *SQLiteSnapshotRepo) CountByProject(ctx context.Context, projectID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM daily_snapshots WHERE project_id = ?`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting snapshots: %w", err)
	}
	return count, nil
}

func (r *SQLiteSnapshotRepo) DeleteByProject(ctx context.Context, projectID int) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM daily_snapshots WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("deleting snapshots: %w", err)
	}
	return nil
}

func scanSnapshotColumns(scan func(dest ...any) error) (*domain.DailySnapshot, error) {
	var s domain.DailySnapshot
	var dateStr string

	err := scan(
		&dateStr, &s.ProjectID, &s.TotalEstimatedHours, &s.CompletedHours, &s.RemainingHours,
		&s.NewTicketsHours, &s.ChangedHours, &s.DeletedHours,
		&s.ActiveTicketCount, &s.CompletedTicketCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}

	var parseErr error
	s.Date, parseErr = time.Parse(dateLayout, dateStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing snapshot date: %w", parseErr)
	}
	return &s, nil
}
