package review

import (
	"context"
	"testing"

	"github.com/poiesic/draftkit/core"
	"github.com/poiesic/draftkit/policy"
	"github.com/poiesic/draftkit/storage"
	badgerstore "github.com/poiesic/draftkit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	service   *Service
	putPolicy func(*core.WorkspacePolicy)
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	policyRepo, reviewRepo, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { reviewRepo.Close(); policyRepo.Close(); backend.Close() })

	service, err := NewService(reviewRepo, policy.NewResolver(policyRepo))
	require.NoError(t, err)

	return &serviceFixture{
		service: service,
		putPolicy: func(p *core.WorkspacePolicy) {
			t.Helper()
			_, err := policyRepo.PutPolicy(context.Background(), p)
			require.NoError(t, err)
		},
	}
}

func newCreateInput() CreateInput {
	return CreateInput{
		UserID:         "user-1",
		UserEmail:      "reviewer@example.com",
		ThreadID:       "thread-1",
		RunID:          "run-1",
		WorkspaceID:    "ws-acme",
		MessageSummary: "Customer asks about billing",
		Intent:         core.IntentCS,
		Confidence:     0.8,
		DraftHTML:      "<p>Happy to explain the invoice.</p>",
	}
}

func TestReviewLifecycle(t *testing.T) {
	fx := newServiceFixture(t)
	fx.putPolicy(&core.WorkspacePolicy{WorkspaceID: "ws-acme", ToneLevel: 3})
	ctx := context.Background()

	created, err := fx.service.Create(ctx, newCreateInput())
	require.NoError(t, err)
	assert.Equal(t, core.ReviewPending, created.Status)
	assert.Equal(t, 1, created.DraftVersion)
	assert.Nil(t, created.ReviewedAt)

	edited, err := fx.service.RequestEdit(ctx, "user-1", created.ID,
		"<p>Here is the corrected invoice breakdown.</p>", "fixed the amounts")
	require.NoError(t, err)
	assert.Equal(t, core.ReviewEditing, edited.Status)
	assert.Equal(t, 2, edited.DraftVersion)
	assert.Equal(t, "fixed the amounts", edited.EditNotes)
	assert.Empty(t, edited.Violations)

	approved, err := fx.service.Approve(ctx, "user-1", created.ID, "looks good")
	require.NoError(t, err)
	assert.Equal(t, core.ReviewApproved, approved.Status)
	assert.Equal(t, "looks good", approved.Feedback)
	require.NotNil(t, approved.ReviewedAt)
	assert.Equal(t, 2, approved.DraftVersion)
}

func TestRejectRecordsFeedback(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, newCreateInput())
	require.NoError(t, err)

	rejected, err := fx.service.Reject(ctx, "user-1", created.ID, "wrong tone")
	require.NoError(t, err)
	assert.Equal(t, core.ReviewRejected, rejected.Status)
	assert.Equal(t, "wrong tone", rejected.Feedback)
	assert.NotNil(t, rejected.ReviewedAt)
}

func TestDecidedRecordTransitions(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, newCreateInput())
	require.NoError(t, err)
	_, err = fx.service.Approve(ctx, "user-1", created.ID, "")
	require.NoError(t, err)

	_, err = fx.service.Reject(ctx, "user-1", created.ID, "changed my mind")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// An edit reopens a decided record.
	reopened, err := fx.service.RequestEdit(ctx, "user-1", created.ID, "<p>new</p>", "")
	require.NoError(t, err)
	assert.Equal(t, core.ReviewEditing, reopened.Status)
	assert.Equal(t, 2, reopened.DraftVersion)
}

func TestRequestEditRescreensDraft(t *testing.T) {
	fx := newServiceFixture(t)
	fx.putPolicy(&core.WorkspacePolicy{
		WorkspaceID: "ws-acme",
		ToneLevel:   3,
		Blocklist:   []string{"free trial"},
	})
	ctx := context.Background()

	created, err := fx.service.Create(ctx, newCreateInput())
	require.NoError(t, err)

	edited, err := fx.service.RequestEdit(ctx, "user-1", created.ID,
		"<p>Sign up for our FREE TRIAL today!</p>", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Blocklisted phrase detected: 'free trial'"}, edited.Violations)
	assert.Equal(t, core.ReviewEditing, edited.Status)
}

func TestRequestEditRejectsEmptyDraft(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, newCreateInput())
	require.NoError(t, err)

	_, err = fx.service.RequestEdit(ctx, "user-1", created.ID, "", "")
	assert.ErrorIs(t, err, core.ErrEmptyDraft)
}

func TestOwnershipEnforced(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	created, err := fx.service.Create(ctx, newCreateInput())
	require.NoError(t, err)

	_, err = fx.service.Get(ctx, "user-2", created.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = fx.service.Approve(ctx, "user-2", created.ID, "")
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = fx.service.RequestEdit(ctx, "user-2", created.ID, "<p>mine now</p>", "")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestListFiltersByStatus(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	first, err := fx.service.Create(ctx, newCreateInput())
	require.NoError(t, err)

	input := newCreateInput()
	input.ThreadID = "thread-2"
	_, err = fx.service.Create(ctx, input)
	require.NoError(t, err)

	_, err = fx.service.Approve(ctx, "user-1", first.ID, "")
	require.NoError(t, err)

	all, err := fx.service.List(ctx, "user-1", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := fx.service.List(ctx, "user-1", core.ReviewPending, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "thread-2", pending[0].ThreadID)

	approved, err := fx.service.List(ctx, "user-1", core.ReviewApproved, 0)
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}

func TestGetMissingRecord(t *testing.T) {
	fx := newServiceFixture(t)

	_, err := fx.service.Get(context.Background(), "user-1", "no-such-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
