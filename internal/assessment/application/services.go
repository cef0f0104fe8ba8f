package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
)

var (
	// ErrProjectNotFound is returned when no document exists for a project key.
	ErrProjectNotFound = errors.New("project not found")
	// ErrSubmissionInProgress is returned when another save of the same project has not settled.
	ErrSubmissionInProgress = errors.New("submission already in progress")
	// ErrInvalidProjectKey is returned for blank company or project identifiers.
	ErrInvalidProjectKey = errors.New("company and project identifiers are required")
)

// StatusStage1Done marks a project whose assessment has been captured.
const StatusStage1Done = "stage1_done"

// ProjectKey is the two-level identifier of a project document.
type ProjectKey struct {
	CompanyID string
	ProjectID string
}

func NewProjectKey(companyID, projectID string) (ProjectKey, error) {
	key := ProjectKey{CompanyID: strings.TrimSpace(companyID), ProjectID: strings.TrimSpace(projectID)}
	if key.CompanyID == "" || key.ProjectID == "" {
		return ProjectKey{}, ErrInvalidProjectKey
	}
	if strings.Contains(key.CompanyID, "/") || strings.Contains(key.ProjectID, "/") {
		return ProjectKey{}, fmt.Errorf("%w: identifiers must not contain '/'", ErrInvalidProjectKey)
	}
	return key, nil
}

func (k ProjectKey) String() string {
	return fmt.Sprintf("companies/%s/projects/%s", k.CompanyID, k.ProjectID)
}

// ProjectSnapshot is the payload merged into the store on save.
type ProjectSnapshot struct {
	Status      string
	Assessment  domain.Record
	CompletedAt string
	Planning    Planning
}

// Planning is the stage-2 block: the derived tasks awaiting approval.
type Planning struct {
	ApprovalStatus domain.ApprovalStatus
	Tasks          []domain.Task
}

// Project is a stored project document.
type Project struct {
	Key         ProjectKey
	Status      string
	UpdatedAt   *time.Time
	Assessment  domain.Record
	CompletedAt string
	Planning    Planning
}

// ProjectRepository persists project documents.
type ProjectRepository interface {
	// Merge writes snapshot as a partial update; fields it does not carry stay untouched.
	Merge(ctx context.Context, key ProjectKey, snapshot ProjectSnapshot) error
	Find(ctx context.Context, key ProjectKey) (*Project, error)
	UpdateApproval(ctx context.Context, key ProjectKey, status domain.ApprovalStatus) error
	Ping(ctx context.Context) error
}

// SubmissionGuard serializes saves of one project.
type SubmissionGuard interface {
	Acquire(ctx context.Context, key ProjectKey) (release func(), err error)
}

// SaveResult reports what a save produced.
type SaveResult struct {
	TasksGenerated int `json:"tasksGenerated"`
}

// ProjectService describes project use-cases.
type ProjectService interface {
	Save(ctx context.Context, key ProjectKey, record domain.Record) (SaveResult, error)
	Load(ctx context.Context, key ProjectKey) (*Project, error)
	SetApproval(ctx context.Context, key ProjectKey, status domain.ApprovalStatus) error
	Preview(record domain.Record) []domain.Task
	Ping(ctx context.Context) error
}
