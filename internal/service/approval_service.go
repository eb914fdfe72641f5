package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"backend/internal/repository"

	"github.com/google/uuid"
)

// ApprovalService is the unified approval queue over all resource kinds.
// Reads fan out across the adapter registry; decisions probe the registry in
// order and dispatch to the single owning adapter.
type ApprovalService interface {
	ListApprovals(ctx context.Context, filter ApprovalFilter) ([]ApprovalRequest, error)
	Stats(ctx context.Context, facilityID *uuid.UUID) (ApprovalStats, error)
	Approve(ctx context.Context, id uuid.UUID, actor *uuid.UUID, comment string) error
	Reject(ctx context.Context, id uuid.UUID, actor *uuid.UUID, reason string) error
	BulkApprove(ctx context.Context, ids []uuid.UUID, actor *uuid.UUID, comment string) []BulkResult
	BulkReject(ctx context.Context, ids []uuid.UUID, actor *uuid.UUID, reason string) []BulkResult
}

type approvalService struct {
	adapters []ResourceAdapter
	notifier NotificationSink
}

func NewApprovalService(adapters []ResourceAdapter, notifier NotificationSink) ApprovalService {
	if notifier == nil {
		notifier = NopSink{}
	}
	return &approvalService{adapters: adapters, notifier: notifier}
}

// ListApprovals fans out to every adapter and merges the results. A failing
// kind is logged and skipped so one broken table never blanks the whole
// queue. Module and priority filters are applied after the merge; facility
// and date filters are pushed down to the stores.
func (s *approvalService) ListApprovals(ctx context.Context, filter ApprovalFilter) ([]ApprovalRequest, error) {
	pending := repository.PendingFilter{
		FacilityID: filter.FacilityID,
		StartDate:  filter.StartDate,
		EndDate:    filter.EndDate,
	}

	var merged []ApprovalRequest
	for _, adapter := range s.adapters {
		if filter.Module != "" && adapter.Module() != filter.Module {
			continue
		}
		if filter.Priority != "" && adapter.Priority() != filter.Priority {
			continue
		}

		requests, err := adapter.ListPending(ctx, pending)
		if err != nil {
			log.Printf("approval queue: listing %s failed, skipping kind: %v", adapter.Kind(), err)
			continue
		}
		merged = append(merged, requests...)
	}

	// Newest first; ties broken by id for a stable order.
	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].RequestedAt.Equal(merged[j].RequestedAt) {
			return merged[i].RequestedAt.After(merged[j].RequestedAt)
		}
		return merged[i].ID.String() < merged[j].ID.String()
	})

	return merged, nil
}

// Stats sums per-status counts across all kinds. Urgent counts the pending
// items of high-priority kinds. Each count is an independent snapshot.
func (s *approvalService) Stats(ctx context.Context, facilityID *uuid.UUID) (ApprovalStats, error) {
	var stats ApprovalStats
	for _, adapter := range s.adapters {
		for _, status := range []string{ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected} {
			count, err := adapter.CountByStatus(ctx, status, facilityID)
			if err != nil {
				log.Printf("approval queue: counting %s %s failed, skipping: %v", adapter.Kind(), status, err)
				continue
			}
			switch status {
			case ApprovalStatusPending:
				stats.Pending += count
				if adapter.Priority() == PriorityHigh {
					stats.Urgent += count
				}
			case ApprovalStatusApproved:
				stats.Approved += count
			case ApprovalStatusRejected:
				stats.Rejected += count
			}
		}
	}
	return stats, nil
}

func (s *approvalService) Approve(ctx context.Context, id uuid.UUID, actor *uuid.UUID, comment string) error {
	adapter, err := s.resolve(ctx, id)
	if err != nil {
		return err
	}
	if err := adapter.Approve(ctx, id, actor, comment); err != nil {
		return err
	}
	s.notifier.Publish(ApprovalEvent{
		Event:     "approval.approved",
		Kind:      adapter.Kind(),
		ID:        id,
		Timestamp: time.Now(),
	})
	return nil
}

func (s *approvalService) Reject(ctx context.Context, id uuid.UUID, actor *uuid.UUID, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}
	adapter, err := s.resolve(ctx, id)
	if err != nil {
		return err
	}
	if err := adapter.Reject(ctx, id, actor, reason); err != nil {
		return err
	}
	s.notifier.Publish(ApprovalEvent{
		Event:     "approval.rejected",
		Kind:      adapter.Kind(),
		ID:        id,
		Timestamp: time.Now(),
	})
	return nil
}

// BulkApprove decides each id independently: one failure never aborts the
// rest, and every id gets an explicit outcome.
func (s *approvalService) BulkApprove(ctx context.Context, ids []uuid.UUID, actor *uuid.UUID, comment string) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		if err := s.Approve(ctx, id, actor, comment); err != nil {
			results = append(results, BulkResult{ID: id, OK: false, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{ID: id, OK: true})
	}
	return results
}

func (s *approvalService) BulkReject(ctx context.Context, ids []uuid.UUID, actor *uuid.UUID, reason string) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		if err := s.Reject(ctx, id, actor, reason); err != nil {
			results = append(results, BulkResult{ID: id, OK: false, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{ID: id, OK: true})
	}
	return results
}

// resolve probes the adapters in registry order and returns the first one
// that owns the id. A failing probe is logged and skipped so a broken store
// for one kind never blocks decisions on ids owned by the others; the error
// surfaces only when no adapter claims the id. Ids are uuids, so cross-kind
// collisions are effectively impossible, but the fixed order keeps
// resolution deterministic regardless.
func (s *approvalService) resolve(ctx context.Context, id uuid.UUID) (ResourceAdapter, error) {
	var probeErr error
	for _, adapter := range s.adapters {
		owns, err := adapter.Owns(ctx, id)
		if err != nil {
			log.Printf("approval queue: probing %s for %s failed, trying next kind: %v", adapter.Kind(), id, err)
			if probeErr == nil {
				probeErr = fmt.Errorf("failed to probe %s: %w", adapter.Kind(), err)
			}
			continue
		}
		if owns {
			return adapter, nil
		}
	}
	if probeErr != nil {
		return nil, probeErr
	}
	return nil, ErrNotFound
}
