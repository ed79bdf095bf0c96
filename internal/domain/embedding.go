package domain

import (
	"fmt"
	"time"
)

// EmbeddingJobStatus is the lifecycle state of one chunk embedding job.
type EmbeddingJobStatus string

const (
	EmbeddingJobStatusPending    EmbeddingJobStatus = "pending"
	EmbeddingJobStatusProcessing EmbeddingJobStatus = "processing"
	EmbeddingJobStatusCompleted  EmbeddingJobStatus = "completed"
	EmbeddingJobStatusFailed     EmbeddingJobStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s EmbeddingJobStatus) Valid() bool {
	switch s {
	case EmbeddingJobStatusPending, EmbeddingJobStatusProcessing,
		EmbeddingJobStatusCompleted, EmbeddingJobStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether a job in status s will not be picked up again.
func (s EmbeddingJobStatus) Terminal() bool {
	return s == EmbeddingJobStatusCompleted || s == EmbeddingJobStatusFailed
}

// EmbeddingJob queues the embedding of one vector_index chunk.
type EmbeddingJob struct {
	ID          string
	VectorUUID  string
	Status      EmbeddingJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewPendingJob queues vectorUUID for embedding.
func NewPendingJob(id, vectorUUID string, now time.Time) *EmbeddingJob {
	return &EmbeddingJob{
		ID:         id,
		VectorUUID: vectorUUID,
		Status:     EmbeddingJobStatusPending,
		CreatedAt:  now.UTC(),
	}
}

// ValidateEmbeddingJob checks a job before it is stored.
func ValidateEmbeddingJob(j *EmbeddingJob) error {
	switch {
	case j == nil:
		return fmt.Errorf("embedding job cannot be nil")
	case j.ID == "":
		return missingField("ID")
	case j.VectorUUID == "":
		return missingField("VectorUUID")
	case !j.Status.Valid():
		return NewDomainErrorWithCause(ErrCodeValidation, ErrInvalidEmbeddingJobStatus.Message,
			fmt.Errorf("Status %q", j.Status))
	case j.Retries < 0:
		return NewDomainError(ErrCodeValidation, "embedding job Retries cannot be negative")
	}
	return nil
}

func missingField(name string) error {
	return NewDomainErrorWithCause(ErrCodeValidation, ErrMissingRequiredField.Message, fmt.Errorf("embedding job %s", name))
}
