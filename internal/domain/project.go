package domain

import "time"

// ProjectStatus mirrors the remote tracker's numeric project status.
type ProjectStatus int

const (
	ProjectActive ProjectStatus = 1
	ProjectClosed ProjectStatus = 5
)

// Project is the locally cached metadata of a remote tracker project.
// Owned by the synchronizer; mutated only on sync.
type Project struct {
	ID          int
	Name        string
	Identifier  string
	Description string
	Status      ProjectStatus
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedOn   time.Time
	UpdatedOn   time.Time
	// UpdatedAt is the local cache write time, distinct from the
	// remote UpdatedOn timestamp.
	UpdatedAt time.Time
}

// IsActive reports whether the remote project is open.
func (p *Project) IsActive() bool {
	return p.Status == ProjectActive
}

// Version is a remote project version/milestone reference.
type Version struct {
	ID      int
	Name    string
	Status  string
	DueDate *time.Time
}
