package application

import (
	"context"
	"fmt"
	"time"

	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
)

// projectService implements ProjectService.
type projectService struct {
	repo  ProjectRepository
	guard SubmissionGuard
	now   func() time.Time
}

// Option customises the project service.
type Option func(*projectService)

// WithClock replaces the clock used for completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *projectService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewProjectService(repo ProjectRepository, guard SubmissionGuard, opts ...Option) ProjectService {
	if guard == nil {
		guard = NopGuard{}
	}
	s := &projectService{repo: repo, guard: guard, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save validates the record, derives its tasks and merges the result into the project
// document. Every save sends the plan back to DRAFT.
func (s *projectService) Save(ctx context.Context, key ProjectKey, record domain.Record) (SaveResult, error) {
	if err := record.ValidateForSave(); err != nil {
		return SaveResult{}, err
	}
	normalized, err := record.Normalize()
	if err != nil {
		return SaveResult{}, err
	}

	release, err := s.guard.Acquire(ctx, key)
	if err != nil {
		return SaveResult{}, err
	}
	defer release()

	tasks := domain.Derive(normalized)
	snapshot := ProjectSnapshot{
		Status:      StatusStage1Done,
		Assessment:  normalized,
		CompletedAt: s.now().UTC().Format(time.RFC3339),
		Planning: Planning{
			ApprovalStatus: domain.ApprovalDraft,
			Tasks:          tasks,
		},
	}
	if err := s.repo.Merge(ctx, key, snapshot); err != nil {
		return SaveResult{}, fmt.Errorf("merge %s: %w", key, err)
	}
	return SaveResult{TasksGenerated: len(tasks)}, nil
}

func (s *projectService) Load(ctx context.Context, key ProjectKey) (*Project, error) {
	return s.repo.Find(ctx, key)
}

func (s *projectService) SetApproval(ctx context.Context, key ProjectKey, status domain.ApprovalStatus) error {
	status, err := domain.NewApprovalStatus(string(status))
	if err != nil {
		return err
	}
	return s.repo.UpdateApproval(ctx, key, status)
}

func (s *projectService) Preview(record domain.Record) []domain.Task {
	return domain.Derive(record)
}

func (s *projectService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// NopGuard never blocks; it is used when no lock backend is configured.
type NopGuard struct{}

func (NopGuard) Acquire(context.Context, ProjectKey) (func(), error) {
	return func() {}, nil
}
