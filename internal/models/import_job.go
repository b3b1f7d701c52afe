package models

import (
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of an [ImportJob].
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// ImportJob records one catalog import run: where the rows came from, who ran it,
// and how many books were created or rejected.
type ImportJob struct {
	id            string
	sequence      int
	username      string
	source        string
	status        JobStatus
	booksTotal    int
	booksImported int
	booksFailed   int
	errorMessage  string
	startedAt     *time.Time
	completedAt   *time.Time
	createdAt     time.Time
	updatedAt     time.Time
	deletedAt     *time.Time
}

var _ Model = (*ImportJob)(nil)

// NewImportJob creates a pending job for source.
func NewImportJob(sequence int, username, source string) *ImportJob {
	now := time.Now()
	return &ImportJob{
		sequence:  sequence,
		username:  username,
		source:    source,
		status:    JobPending,
		createdAt: now,
		updatedAt: now,
	}
}

func (j *ImportJob) ID() string               { return j.id }
func (j *ImportJob) Sequence() int            { return j.sequence }
func (j *ImportJob) Username() string         { return j.username }
func (j *ImportJob) Source() string           { return j.source }
func (j *ImportJob) Status() JobStatus        { return j.status }
func (j *ImportJob) BooksTotal() int          { return j.booksTotal }
func (j *ImportJob) BooksImported() int       { return j.booksImported }
func (j *ImportJob) BooksFailed() int         { return j.booksFailed }
func (j *ImportJob) ErrorMessage() string     { return j.errorMessage }
func (j *ImportJob) StartedAt() *time.Time    { return j.startedAt }
func (j *ImportJob) CompletedAt() *time.Time  { return j.completedAt }
func (j *ImportJob) CreatedAt() time.Time     { return j.createdAt }
func (j *ImportJob) UpdatedAt() time.Time     { return j.updatedAt }
func (j *ImportJob) DeletedAt() *time.Time    { return j.deletedAt }
func (j *ImportJob) SetID(id string)          { j.id = id }
func (j *ImportJob) SetSequence(seq int)      { j.sequence = seq }
func (j *ImportJob) SetUpdatedAt(t time.Time) { j.updatedAt = t }
func (j *ImportJob) SetCreatedAt(t time.Time) { j.createdAt = t }
func (j *ImportJob) SetDeletedAt(t *time.Time) {
	j.deletedAt = t
}

// Start marks the job running with the number of rows to import.
func (j *ImportJob) Start(total int) {
	now := time.Now()
	j.status = JobRunning
	j.booksTotal = total
	j.startedAt = &now
	j.updatedAt = now
}

// Record counts one imported or failed row.
func (j *ImportJob) Record(ok bool) {
	if ok {
		j.booksImported++
	} else {
		j.booksFailed++
	}
}

// SetCounts overwrites progress counters, used when loading from storage.
func (j *ImportJob) SetCounts(total, imported, failed int) {
	j.booksTotal, j.booksImported, j.booksFailed = total, imported, failed
}

// Finish marks the job completed, or failed when err is non-nil.
func (j *ImportJob) Finish(err error) {
	now := time.Now()
	j.completedAt = &now
	j.updatedAt = now
	if err != nil {
		j.status = JobFailed
		j.errorMessage = err.Error()
		return
	}
	j.status = JobCompleted
}

// Restore sets lifecycle fields read back from storage.
func (j *ImportJob) Restore(status JobStatus, errorMessage string, startedAt, completedAt *time.Time) {
	j.status = status
	j.errorMessage = errorMessage
	j.startedAt = startedAt
	j.completedAt = completedAt
}

// Validate checks the job's invariants.
func (j *ImportJob) Validate() error {
	if j.source == "" {
		return fmt.Errorf("import job source is required")
	}
	switch j.status {
	case JobPending, JobRunning, JobCompleted, JobFailed:
	default:
		return fmt.Errorf("invalid import job status: %q", j.status)
	}
	if j.booksImported+j.booksFailed > j.booksTotal && j.booksTotal > 0 {
		return fmt.Errorf("import job counts exceed total: %d+%d > %d", j.booksImported, j.booksFailed, j.booksTotal)
	}
	return nil
}
