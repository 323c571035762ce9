package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInFlight means a resolve for this item is already running from this
	// bot; the duplicate tap is dropped. A second admin session
	// double-processing the same item is a server-side concern.
	ErrInFlight = errors.New("action already in flight")

	ErrUnknownItem = errors.New("item is not in the pending list")
)

// Resolver executes the terminal decision against a domain endpoint.
type Resolver func(ctx context.Context, itemID int64) error

// Queue is the client side of one submission-with-review domain: a locally
// held pending list fetched from the API, pruned item by item as decisions
// succeed. A failed decision, not-found included, leaves the item visible so
// the admin sees an honest queue rather than a silently shrunk one.
type Queue[T any] struct {
	fetch   func(ctx context.Context) ([]T, error)
	itemID  func(T) int64
	approve Resolver
	reject  Resolver

	mu       sync.Mutex
	items    []T
	inFlight map[int64]struct{}
}

func NewQueue[T any](
	fetch func(ctx context.Context) ([]T, error),
	itemID func(T) int64,
	approve Resolver,
	reject Resolver,
) *Queue[T] {
	return &Queue[T]{
		fetch:    fetch,
		itemID:   itemID,
		approve:  approve,
		reject:   reject,
		inFlight: make(map[int64]struct{}),
	}
}

// Refresh re-fetches the pending collection and replaces the local list.
func (q *Queue[T]) Refresh(ctx context.Context) ([]T, error) {
	if q.fetch == nil {
		return nil, fmt.Errorf("queue fetch is not configured")
	}

	items, err := q.fetch(ctx)
	if err != nil {
		return nil, err
	}

	q.mu.Lock()
	q.items = items
	q.mu.Unlock()

	return q.Items(), nil
}

// Items returns a snapshot of the local pending list.
func (q *Queue[T]) Items() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := make([]T, len(q.items))
	copy(snapshot, q.items)
	return snapshot
}

func (q *Queue[T]) Get(itemID int64) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, item := range q.items {
		if q.itemID(item) == itemID {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) Approve(ctx context.Context, itemID int64) error {
	return q.resolve(ctx, itemID, q.approve)
}

func (q *Queue[T]) Reject(ctx context.Context, itemID int64) error {
	return q.resolve(ctx, itemID, q.reject)
}

func (q *Queue[T]) resolve(ctx context.Context, itemID int64, action Resolver) error {
	if action == nil {
		return fmt.Errorf("queue action is not configured")
	}

	q.mu.Lock()
	if !q.containsLocked(itemID) {
		q.mu.Unlock()
		return ErrUnknownItem
	}
	if _, busy := q.inFlight[itemID]; busy {
		q.mu.Unlock()
		return ErrInFlight
	}
	q.inFlight[itemID] = struct{}{}
	q.mu.Unlock()

	err := action(ctx, itemID)

	q.mu.Lock()
	delete(q.inFlight, itemID)
	if err == nil {
		q.pruneLocked(itemID)
	}
	q.mu.Unlock()

	return err
}

func (q *Queue[T]) containsLocked(itemID int64) bool {
	for _, item := range q.items {
		if q.itemID(item) == itemID {
			return true
		}
	}
	return false
}

func (q *Queue[T]) pruneLocked(itemID int64) {
	kept := q.items[:0]
	for _, item := range q.items {
		if q.itemID(item) != itemID {
			kept = append(kept, item)
		}
	}
	q.items = kept
}
