package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
)

type fakeRepo struct {
	merges    []ProjectSnapshot
	keys      []ProjectKey
	mergeErr  error
	projects  map[ProjectKey]*Project
	approvals map[ProjectKey]domain.ApprovalStatus
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		projects:  map[ProjectKey]*Project{},
		approvals: map[ProjectKey]domain.ApprovalStatus{},
	}
}

func (f *fakeRepo) Merge(_ context.Context, key ProjectKey, snapshot ProjectSnapshot) error {
	if f.mergeErr != nil {
		return f.mergeErr
	}
	f.keys = append(f.keys, key)
	f.merges = append(f.merges, snapshot)
	return nil
}

func (f *fakeRepo) Find(_ context.Context, key ProjectKey) (*Project, error) {
	p, ok := f.projects[key]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return p, nil
}

func (f *fakeRepo) UpdateApproval(_ context.Context, key ProjectKey, status domain.ApprovalStatus) error {
	if _, ok := f.projects[key]; !ok {
		return ErrProjectNotFound
	}
	f.approvals[key] = status
	return nil
}

func (f *fakeRepo) Ping(context.Context) error { return nil }

type fakeGuard struct {
	held     bool
	acquired int
	released int
}

func (g *fakeGuard) Acquire(context.Context, ProjectKey) (func(), error) {
	if g.held {
		return nil, ErrSubmissionInProgress
	}
	g.acquired++
	return func() { g.released++ }, nil
}

var fixedNow = time.Date(2025, 2, 3, 4, 5, 6, 0, time.FixedZone("CST", 8*60*60))

func testKey(t *testing.T) ProjectKey {
	t.Helper()
	key, err := NewProjectKey("demo", "2025_01")
	require.NoError(t, err)
	return key
}

func TestSave_RejectsMissingCompanyNameWithoutWriting(t *testing.T) {
	repo := newFakeRepo()
	guard := &fakeGuard{}
	svc := NewProjectService(repo, guard)

	_, err := svc.Save(context.Background(), testKey(t), domain.Record{})

	assert.ErrorIs(t, err, domain.ErrCompanyNameRequired)
	assert.Empty(t, repo.merges)
	assert.Zero(t, guard.acquired)
}

func TestSave_RejectsInvalidEnumWithoutWriting(t *testing.T) {
	repo := newFakeRepo()
	svc := NewProjectService(repo, nil)

	r := domain.Record{}
	r.CompanyName = "Acme Co"
	r.ShiftType = "night"
	_, err := svc.Save(context.Background(), testKey(t), r)

	assert.ErrorIs(t, err, domain.ErrInvalidField)
	assert.Empty(t, repo.merges)
}

func TestSave_MergesSnapshot(t *testing.T) {
	repo := newFakeRepo()
	guard := &fakeGuard{}
	svc := NewProjectService(repo, guard, WithClock(func() time.Time { return fixedNow }))

	r := domain.NewRecord(fixedNow)
	r.CompanyName = "Acme Co"
	r.Plans.Ergo.P = true
	r.Plans.Violence.P = true
	r.Plans.Maternal.P = true

	result, err := svc.Save(context.Background(), testKey(t), r)

	require.NoError(t, err)
	assert.Equal(t, 3, result.TasksGenerated)
	require.Len(t, repo.merges, 1)

	snap := repo.merges[0]
	assert.Equal(t, "companies/demo/projects/2025_01", repo.keys[0].String())
	assert.Equal(t, StatusStage1Done, snap.Status)
	assert.Equal(t, "2025-02-02T20:05:06Z", snap.CompletedAt)
	assert.Equal(t, domain.ApprovalDraft, snap.Planning.ApprovalStatus)
	require.Len(t, snap.Planning.Tasks, 3)
	assert.Equal(t, "異常工作負荷(過勞)預防計畫建置", snap.Planning.Tasks[1].Name)
	assert.Equal(t, "Acme Co", snap.Assessment.CompanyName)
	assert.Equal(t, 1, guard.acquired)
	assert.Equal(t, 1, guard.released)
}

func TestSave_StoresNormalizedRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := NewProjectService(repo, nil)

	r := domain.Record{}
	r.CompanyName = "Acme Co"
	_, err := svc.Save(context.Background(), testKey(t), r)

	require.NoError(t, err)
	stored := repo.merges[0].Assessment
	assert.Equal(t, domain.ShiftNormal, stored.ShiftType)
	assert.Equal(t, domain.PriorityLow, stored.Plans.Overwork.Priority)
	assert.NotNil(t, stored.Admin.SDSList)
}

func TestSave_ConcurrentSubmissionRejected(t *testing.T) {
	repo := newFakeRepo()
	svc := NewProjectService(repo, &fakeGuard{held: true})

	r := domain.Record{}
	r.CompanyName = "Acme Co"
	_, err := svc.Save(context.Background(), testKey(t), r)

	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	assert.Empty(t, repo.merges)
}

func TestSave_WriteFailureReleasesGuard(t *testing.T) {
	boom := errors.New("connection reset")
	repo := newFakeRepo()
	repo.mergeErr = boom
	guard := &fakeGuard{}
	svc := NewProjectService(repo, guard)

	r := domain.Record{}
	r.CompanyName = "Acme Co"
	_, err := svc.Save(context.Background(), testKey(t), r)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, guard.released)
}

func TestSetApproval(t *testing.T) {
	repo := newFakeRepo()
	key := testKey(t)
	repo.projects[key] = &Project{Key: key}
	svc := NewProjectService(repo, nil)

	require.NoError(t, svc.SetApproval(context.Background(), key, "approved"))
	assert.Equal(t, domain.ApprovalApproved, repo.approvals[key])

	err := svc.SetApproval(context.Background(), key, "REJECTED")
	assert.ErrorIs(t, err, domain.ErrInvalidField)

	other, err := NewProjectKey("demo", "2026_01")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.SetApproval(context.Background(), other, domain.ApprovalDraft), ErrProjectNotFound)
}

func TestPreview_DoesNotPersist(t *testing.T) {
	repo := newFakeRepo()
	svc := NewProjectService(repo, nil)

	tasks := svc.Preview(domain.Record{})

	assert.Len(t, tasks, 6)
	assert.Empty(t, repo.merges)
}

func TestNewProjectKey(t *testing.T) {
	_, err := NewProjectKey(" ", "p")
	assert.ErrorIs(t, err, ErrInvalidProjectKey)

	_, err = NewProjectKey("a/b", "p")
	assert.ErrorIs(t, err, ErrInvalidProjectKey)

	key, err := NewProjectKey(" demo ", "2025_01")
	require.NoError(t, err)
	assert.Equal(t, "demo", key.CompanyID)
}
