package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rdburn/internal/db"
	"rdburn/internal/domain"

	"github.com/google/uuid"
)

// SQLiteScopeChangeRepo implements ScopeChangeRepo over a db.DBTX.
// Events are append-only; there is no update path.
type SQLiteScopeChangeRepo struct {
	db db.DBTX
}

// NewSQLiteScopeChangeRepo creates a new SQLiteScopeChangeRepo.
func NewSQLiteScopeChangeRepo(dbtx db.DBTX) *SQLiteScopeChangeRepo {
	return &SQLiteScopeChangeRepo{db: dbtx}
}

func (r *SQLiteScopeChangeRepo) Create(ctx context.Context, e *domain.ScopeChangeEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	query := `INSERT INTO scope_changes
		(id, date, project_id, ticket_id, ticket_subject, change_type,
		 hours_delta, old_hours, new_hours, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		domain.DateOf(e.Date).Format(dateLayout),
		e.ProjectID,
		e.TicketID,
		e.TicketSubject,
		string(e.ChangeType),
		e.HoursDelta,
		nullableFloatToValue(e.OldHours),
		nullableFloatToValue(e.NewHours),
		e.Reason,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording scope change: %w", err)
	}
	return nil
}

func (r *SQLiteScopeChangeRepo) ListByProject(ctx context.Context, projectID int) ([]domain.ScopeChangeEvent, error) {
	query := `SELECT id, date, project_id, ticket_id, ticket_subject, change_type,
			hours_delta, old_hours, new_hours, reason
		FROM scope_changes WHERE project_id = ? ORDER BY date, created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing scope changes: %w", err)
	}
	defer rows.Close()

	var events []domain.ScopeChangeEvent
	for rows.Next() {
		var e domain.ScopeChangeEvent
		var dateStr, changeType string
		var oldHours, newHours sql.NullFloat64

		if err := rows.Scan(
			&e.ID, &dateStr, &e.ProjectID, &e.TicketID, &e.TicketSubject, &changeType,
			&e.HoursDelta, &oldHours, &newHours, &e.Reason,
		); err != nil {
			return nil, fmt.Errorf("scanning scope change: %w", err)
		}

		e.Date, err = time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing scope change date: %w", err)
		}
		e.ChangeType = domain.ChangeType(changeType)
		e.OldHours = floatFromNullable(oldHours)
		e.NewHours = floatFromNullable(newHours)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scope changes: %w", err)
	}
	return events, nil
}

func (r *SQLiteScopeChangeRepo) CountByProject(ctx context.Context, projectID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scope_changes WHERE project_id = ?`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting scope changes: %w", err)
	}
	return count, nil
}

func (r *SQLiteScopeChangeRepo) DeleteByProject(ctx context.Context, projectID int) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM scope_changes WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("deleting scope changes: %w", err)
	}
	return nil
}
