package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"rdburn/internal/db"
	"rdburn/internal/domain"
)

// SQLiteTicketRepo implements TicketRepo over a db.DBTX.
type SQLiteTicketRepo struct {
	db db.DBTX
}

// NewSQLiteTicketRepo creates a new SQLiteTicketRepo.
func NewSQLiteTicketRepo(dbtx db.DBTX) *SQLiteTicketRepo {
	return &SQLiteTicketRepo{db: dbtx}
}

const ticketColumns = `id, project_id, subject, estimated_hours, status_id, status_name,
	created_on, updated_on, completed_on, assigned_to_id, assigned_to_name,
	version_id, version_name, custom_fields, updated_at`

func (r *SQLiteTicketRepo) Upsert(ctx context.Context, t *domain.Ticket) error {
	var customFields interface{}
	if len(t.CustomFields) > 0 {
		encoded, err := json.Marshal(t.CustomFields)
		if err != nil {
			return fmt.Errorf("encoding custom fields: %w", err)
		}
		customFields = string(encoded)
	}

	query := `INSERT INTO tickets (` + ticketColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			subject = excluded.subject,
			estimated_hours = excluded.estimated_hours,
			status_id = excluded.status_id,
			status_name = excluded.status_name,
			created_on = excluded.created_on,
			updated_on = excluded.updated_on,
			completed_on = excluded.completed_on,
			assigned_to_id = excluded.assigned_to_id,
			assigned_to_name = excluded.assigned_to_name,
			version_id = excluded.version_id,
			version_name = excluded.version_name,
			custom_fields = excluded.custom_fields,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.ProjectID,
		t.Subject,
		nullableFloatToValue(t.EstimatedHours),
		t.StatusID,
		t.StatusName,
		t.CreatedOn.UTC().Format(time.RFC3339),
		t.UpdatedOn.UTC().Format(time.RFC3339),
		nullableTimeToUTCString(t.CompletedOn),
		nullableIntToValue(t.AssignedToID),
		t.AssignedToName,
		nullableIntToValue(t.VersionID),
		t.VersionName,
		customFields,
		t.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting ticket: %w", err)
	}
	return nil
}

func (r *SQLiteTicketRepo) GetByID(ctx context.Context, id int) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ?`
	t, err := scanTicketColumns(r.db.QueryRowContext(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *SQLiteTicketRepo) ListByProject(ctx context.Context, projectID int) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE project_id = ? ORDER BY id`
	return r.queryTickets(ctx, query, projectID)
}

func (r *SQLiteTicketRepo) ListCreatedOnOrBefore(ctx context.Context, projectID int, day time.Time) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
		WHERE project_id = ? AND DATE(created_on) <= ? ORDER BY id`
	return r.queryTickets(ctx, query, projectID, domain.DateOf(day).Format(dateLayout))
}

func (r *SQLiteTicketRepo) MaxUpdatedOn(ctx context.Context, projectID int) (*time.Time, error) {
	var v sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(updated_on) FROM tickets WHERE project_id = ?`, projectID).Scan(&v)
	if err != nil {
		return nil, fmt.Errorf("reading update watermark: %w", err)
	}
	return parseNullableTime(v, time.RFC3339), nil
}

func (r *SQLiteTicketRepo) MinCreatedOn(ctx context.Context, projectID int) (*time.Time, error) {
	var v sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT MIN(created_on) FROM tickets WHERE project_id = ?`, projectID).Scan(&v)
	if err != nil {
		return nil, fmt.Errorf("reading earliest ticket date: %w", err)
	}
	return parseNullableTime(v, time.RFC3339), nil
}

func (r *SQLiteTicketRepo) CountByProject(ctx context.Context, projectID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE project_id = ?`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting tickets: %w", err)
	}
	return count, nil
}

func (r *SQLiteTicketRepo) DeleteByProject(ctx context.Context, projectID int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("deleting tickets: %w", err)
	}
	return nil
}

func (r *SQLiteTicketRepo) queryTickets(ctx context.Context, query string, args ...any) ([]*domain.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		t, err := scanTicketColumns(rows.Scan)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tickets: %w", err)
	}
	return tickets, nil
}

func scanTicketColumns(scan func(dest ...any) error) (*domain.Ticket, error) {
	var t domain.Ticket
	var estimatedHours sql.NullFloat64
	var assignedToID, versionID sql.NullInt64
	var createdOn, updatedOn, completedOn, customFields sql.NullString
	var updatedAt string

	err := scan(
		&t.ID, &t.ProjectID, &t.Subject, &estimatedHours, &t.StatusID, &t.StatusName,
		&createdOn, &updatedOn, &completedOn, &assignedToID, &t.AssignedToName,
		&versionID, &t.VersionName, &customFields, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning ticket: %w", err)
	}

	t.EstimatedHours = floatFromNullable(estimatedHours)
	t.AssignedToID = intFromNullable(assignedToID)
	t.VersionID = intFromNullable(versionID)
	t.CreatedOn = timeOrZero(createdOn, time.RFC3339)
	t.UpdatedOn = timeOrZero(updatedOn, time.RFC3339)
	t.CompletedOn = parseNullableTime(completedOn, time.RFC3339)

	if customFields.Valid && customFields.String != "" {
		if err := json.Unmarshal([]byte(customFields.String), &t.CustomFields); err != nil {
			return nil, fmt.Errorf("decoding custom fields: %w", err)
		}
	}

	var parseErr error
	t.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &t, nil
}
