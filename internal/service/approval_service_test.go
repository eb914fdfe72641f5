package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter is a scriptable ResourceAdapter for dispatcher/aggregator tests.
type fakeAdapter struct {
	kind     string
	module   string
	priority string

	owned    map[uuid.UUID]bool
	ownsErr  error
	pending  []ApprovalRequest
	listErr  error
	counts   map[string]int64
	countErr error

	approved  []uuid.UUID
	rejected  []uuid.UUID
	decideErr error
}

func (f *fakeAdapter) Kind() string     { return f.kind }
func (f *fakeAdapter) Module() string   { return f.module }
func (f *fakeAdapter) Priority() string { return f.priority }

func (f *fakeAdapter) Owns(ctx context.Context, id uuid.UUID) (bool, error) {
	if f.ownsErr != nil {
		return false, f.ownsErr
	}
	return f.owned[id], nil
}

func (f *fakeAdapter) ListPending(ctx context.Context, filter repository.PendingFilter) ([]ApprovalRequest, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.pending, nil
}

func (f *fakeAdapter) CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.counts[status], nil
}

func (f *fakeAdapter) Approve(ctx context.Context, id uuid.UUID, actor *uuid.UUID, comment string) error {
	if f.decideErr != nil {
		return f.decideErr
	}
	f.approved = append(f.approved, id)
	return nil
}

func (f *fakeAdapter) Reject(ctx context.Context, id uuid.UUID, actor *uuid.UUID, reason string) error {
	if f.decideErr != nil {
		return f.decideErr
	}
	f.rejected = append(f.rejected, id)
	return nil
}

// captureSink records published events for assertions.
type captureSink struct {
	events []ApprovalEvent
}

func (c *captureSink) Publish(event ApprovalEvent) {
	c.events = append(c.events, event)
}

func pendingRequest(id uuid.UUID, kind string, requestedAt time.Time) ApprovalRequest {
	return ApprovalRequest{
		ID:          id,
		Kind:        kind,
		Status:      ApprovalStatusPending,
		RequestedAt: requestedAt,
	}
}

func TestApprovalService_ApproveDispatchesToOwningAdapter(t *testing.T) {
	id := uuid.New()
	budgets := &fakeAdapter{kind: KindBudget, module: ModuleFinance, priority: PriorityHigh, owned: map[uuid.UUID]bool{}}
	transactions := &fakeAdapter{kind: KindTransaction, module: ModuleFinance, priority: PriorityMedium, owned: map[uuid.UUID]bool{id: true}}
	sink := &captureSink{}
	svc := NewApprovalService([]ResourceAdapter{budgets, transactions}, sink)

	require.NoError(t, svc.Approve(context.Background(), id, nil, "ok"))

	assert.Empty(t, budgets.approved)
	assert.Equal(t, []uuid.UUID{id}, transactions.approved)

	require.Len(t, sink.events, 1)
	assert.Equal(t, "approval.approved", sink.events[0].Event)
	assert.Equal(t, KindTransaction, sink.events[0].Kind)
	assert.Equal(t, id, sink.events[0].ID)
}

func TestApprovalService_ProbeOrderIsDeterministic(t *testing.T) {
	// Both adapters claim the id; the one registered first must win.
	id := uuid.New()
	first := &fakeAdapter{kind: KindBudget, priority: PriorityHigh, owned: map[uuid.UUID]bool{id: true}}
	second := &fakeAdapter{kind: KindTransaction, priority: PriorityMedium, owned: map[uuid.UUID]bool{id: true}}
	svc := NewApprovalService([]ResourceAdapter{first, second}, nil)

	require.NoError(t, svc.Approve(context.Background(), id, nil, ""))

	assert.Equal(t, []uuid.UUID{id}, first.approved)
	assert.Empty(t, second.approved)
}

func TestApprovalService_UnknownIDReturnsNotFound(t *testing.T) {
	svc := NewApprovalService([]ResourceAdapter{
		&fakeAdapter{kind: KindBudget, priority: PriorityHigh, owned: map[uuid.UUID]bool{}},
	}, nil)

	err := svc.Approve(context.Background(), uuid.New(), nil, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApprovalService_ProbeFailureSkipsToNextKind(t *testing.T) {
	// A transient store failure in an earlier-probed kind must not block
	// decisions on ids owned by later kinds.
	id := uuid.New()
	broken := &fakeAdapter{kind: KindBudget, priority: PriorityHigh, ownsErr: errors.New("connection refused")}
	owning := &fakeAdapter{kind: KindTransaction, priority: PriorityMedium, owned: map[uuid.UUID]bool{id: true}}
	svc := NewApprovalService([]ResourceAdapter{broken, owning}, nil)

	require.NoError(t, svc.Approve(context.Background(), id, nil, ""))
	assert.Equal(t, []uuid.UUID{id}, owning.approved)

	// When no adapter claims the id, the probe failure surfaces instead of
	// a misleading not-found.
	err := svc.Approve(context.Background(), uuid.New(), nil, "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), KindBudget)
}

func TestApprovalService_RejectRequiresReason(t *testing.T) {
	id := uuid.New()
	adapter := &fakeAdapter{kind: KindBudget, priority: PriorityHigh, owned: map[uuid.UUID]bool{id: true}}
	sink := &captureSink{}
	svc := NewApprovalService([]ResourceAdapter{adapter}, sink)

	err := svc.Reject(context.Background(), id, nil, "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, adapter.rejected, "adapter must not be touched when validation fails")
	assert.Empty(t, sink.events)

	require.NoError(t, svc.Reject(context.Background(), id, nil, "missing receipts"))
	assert.Equal(t, []uuid.UUID{id}, adapter.rejected)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "approval.rejected", sink.events[0].Event)
}

func TestApprovalService_ListSkipsFailingKind(t *testing.T) {
	now := time.Now()
	ok := &fakeAdapter{
		kind:     KindBudget,
		priority: PriorityHigh,
		pending:  []ApprovalRequest{pendingRequest(uuid.New(), KindBudget, now)},
	}
	broken := &fakeAdapter{
		kind:     KindTransaction,
		priority: PriorityMedium,
		listErr:  errors.New("relation does not exist"),
	}
	svc := NewApprovalService([]ResourceAdapter{ok, broken}, nil)

	requests, err := svc.ListApprovals(context.Background(), ApprovalFilter{})
	require.NoError(t, err)
	assert.Len(t, requests, 1, "one broken kind must not blank the queue")
}

func TestApprovalService_ListSortsNewestFirst(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	oldest := pendingRequest(uuid.New(), KindBudget, base)
	middle := pendingRequest(uuid.New(), KindTransaction, base.Add(time.Hour))
	newest := pendingRequest(uuid.New(), KindTransaction, base.Add(2*time.Hour))

	svc := NewApprovalService([]ResourceAdapter{
		&fakeAdapter{kind: KindBudget, priority: PriorityHigh, pending: []ApprovalRequest{oldest}},
		&fakeAdapter{kind: KindTransaction, priority: PriorityMedium, pending: []ApprovalRequest{middle, newest}},
	}, nil)

	requests, err := svc.ListApprovals(context.Background(), ApprovalFilter{})
	require.NoError(t, err)
	require.Len(t, requests, 3)
	assert.Equal(t, newest.ID, requests[0].ID)
	assert.Equal(t, middle.ID, requests[1].ID)
	assert.Equal(t, oldest.ID, requests[2].ID)
}

func TestApprovalService_ListFiltersByModuleAndPriority(t *testing.T) {
	finance := &fakeAdapter{
		kind: KindBudget, module: ModuleFinance, priority: PriorityHigh,
		pending: []ApprovalRequest{pendingRequest(uuid.New(), KindBudget, time.Now())},
	}
	qurban := &fakeAdapter{
		kind: KindCampaign, module: ModuleQurban, priority: PriorityMedium,
		pending: []ApprovalRequest{pendingRequest(uuid.New(), KindCampaign, time.Now())},
	}
	svc := NewApprovalService([]ResourceAdapter{finance, qurban}, nil)

	byModule, err := svc.ListApprovals(context.Background(), ApprovalFilter{Module: ModuleQurban})
	require.NoError(t, err)
	require.Len(t, byModule, 1)
	assert.Equal(t, KindCampaign, byModule[0].Kind)

	byPriority, err := svc.ListApprovals(context.Background(), ApprovalFilter{Priority: PriorityHigh})
	require.NoError(t, err)
	require.Len(t, byPriority, 1)
	assert.Equal(t, KindBudget, byPriority[0].Kind)
}

func TestApprovalService_StatsCountsUrgentFromHighPriorityKinds(t *testing.T) {
	svc := NewApprovalService([]ResourceAdapter{
		&fakeAdapter{
			kind: KindBudget, priority: PriorityHigh,
			counts: map[string]int64{ApprovalStatusPending: 3, ApprovalStatusApproved: 5, ApprovalStatusRejected: 1},
		},
		&fakeAdapter{
			kind: KindTransaction, priority: PriorityMedium,
			counts: map[string]int64{ApprovalStatusPending: 7, ApprovalStatusApproved: 2},
		},
	}, nil)

	stats, err := svc.Stats(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.Pending)
	assert.Equal(t, int64(7), stats.Approved)
	assert.Equal(t, int64(1), stats.Rejected)
	assert.Equal(t, int64(3), stats.Urgent, "only high-priority pending items are urgent")
}

func TestApprovalService_StatsSkipsFailingCounts(t *testing.T) {
	svc := NewApprovalService([]ResourceAdapter{
		&fakeAdapter{kind: KindBudget, priority: PriorityHigh, countErr: errors.New("timeout")},
		&fakeAdapter{kind: KindTransaction, priority: PriorityMedium, counts: map[string]int64{ApprovalStatusPending: 4}},
	}, nil)

	stats, err := svc.Stats(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Pending)
}

func TestApprovalService_BulkApproveIsolatesFailures(t *testing.T) {
	good1, missing, good2 := uuid.New(), uuid.New(), uuid.New()
	adapter := &fakeAdapter{
		kind: KindBudget, priority: PriorityHigh,
		owned: map[uuid.UUID]bool{good1: true, good2: true},
	}
	svc := NewApprovalService([]ResourceAdapter{adapter}, nil)

	results := svc.BulkApprove(context.Background(), []uuid.UUID{good1, missing, good2}, nil, "")

	require.Len(t, results, 3)
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.NotEmpty(t, results[1].Error)
	assert.True(t, results[2].OK, "failure of one id must not abort the rest")
	assert.Equal(t, []uuid.UUID{good1, good2}, adapter.approved)
}

func TestApprovalService_BulkRejectValidatesEveryID(t *testing.T) {
	id := uuid.New()
	adapter := &fakeAdapter{kind: KindBudget, priority: PriorityHigh, owned: map[uuid.UUID]bool{id: true}}
	svc := NewApprovalService([]ResourceAdapter{adapter}, nil)

	results := svc.BulkReject(context.Background(), []uuid.UUID{id}, nil, "")
	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Empty(t, adapter.rejected)
}
