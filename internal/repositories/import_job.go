package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/shared"
)

// ImportJobRepository implements [models.Repository] for catalog import runs.
//
// Handles job CRUD operations with soft delete support and status-based queries.
type ImportJobRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.ImportJob] = (*ImportJobRepository)(nil)

// NewImportJobRepository creates a new ImportJobRepository with the given database connection
func NewImportJobRepository(db *sql.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

const importJobColumns = `
	id, sequence, username, source, status, books_total, books_imported,
	books_failed, error_message, started_at, completed_at, created_at,
	updated_at, deleted_at`

// Create inserts a new job with a generated ID and sequence
func (r *ImportJobRepository) Create(job *models.ImportJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "import_jobs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	job.SetID(id)
	job.SetSequence(sequence)

	query := `
		INSERT INTO import_jobs (
			id, sequence, username, source, status, books_total, books_imported,
			books_failed, error_message, started_at, completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		job.Username(),
		job.Source(),
		string(job.Status()),
		job.BooksTotal(),
		job.BooksImported(),
		job.BooksFailed(),
		nullString(job.ErrorMessage()),
		job.StartedAt(),
		job.CompletedAt(),
		job.CreatedAt(),
		job.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert import job: %w", err)
	}

	return nil
}

// Get retrieves a job by ID, excluding soft-deleted jobs
func (r *ImportJobRepository) Get(id string) (*models.ImportJob, error) {
	query := `SELECT` + importJobColumns + ` FROM import_jobs WHERE id = ? AND deleted_at IS NULL`

	job, err := scanImportJob(r.db.QueryRow(query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("import job not found: %s", id)
	}
	return job, err
}

// Update writes a job's progress and lifecycle fields
func (r *ImportJobRepository) Update(job *models.ImportJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	job.SetUpdatedAt(now)

	query := `
		UPDATE import_jobs
		SET status = ?, books_total = ?, books_imported = ?, books_failed = ?,
			error_message = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		string(job.Status()),
		job.BooksTotal(),
		job.BooksImported(),
		job.BooksFailed(),
		nullString(job.ErrorMessage()),
		job.StartedAt(),
		job.CompletedAt(),
		now,
		job.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update import job: %w", err)
	}

	return expectAffected(result, "import job", job.ID())
}

// Delete soft-deletes a job by ID
func (r *ImportJobRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE import_jobs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete import job: %w", err)
	}

	return expectAffected(result, "import job", id)
}

// List retrieves jobs matching the given criteria, newest first.
//
// Supported criteria: "username", "status" (string) and "limit" (int).
func (r *ImportJobRepository) List(criteria map[string]any) ([]*models.ImportJob, error) {
	query := `SELECT` + importJobColumns + ` FROM import_jobs WHERE deleted_at IS NULL`
	args := []any{}

	if username, ok := criteria["username"].(string); ok && username != "" {
		query += " AND username = ?"
		args = append(args, username)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.ImportJob
	for rows.Next() {
		job, err := scanImportJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return jobs, nil
}

// scanImportJob reads one row through scan, which is either [sql.Row.Scan] or [sql.Rows.Scan].
// [sql.ErrNoRows] is returned unwrapped.
func scanImportJob(scan func(dest ...any) error) (*models.ImportJob, error) {
	var (
		id            string
		sequence      int
		username      string
		source        string
		status        string
		booksTotal    int
		booksImported int
		booksFailed   int
		errorMessage  sql.NullString
		startedAt     sql.NullTime
		completedAt   sql.NullTime
		createdAt     time.Time
		updatedAt     time.Time
		deletedAt     sql.NullTime
	)

	err := scan(
		&id, &sequence, &username, &source, &status, &booksTotal, &booksImported,
		&booksFailed, &errorMessage, &startedAt, &completedAt, &createdAt,
		&updatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan import job: %w", err)
	}

	job := models.NewImportJob(sequence, username, source)
	job.SetID(id)
	job.SetCreatedAt(createdAt)
	job.SetUpdatedAt(updatedAt)
	job.SetCounts(booksTotal, booksImported, booksFailed)
	job.Restore(models.JobStatus(status), errorMessage.String, nullTimePtr(startedAt), nullTimePtr(completedAt))
	if deletedAt.Valid {
		job.SetDeletedAt(&deletedAt.Time)
	}

	return job, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func expectAffected(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s not found or already deleted: %s", entity, id)
	}
	return nil
}
