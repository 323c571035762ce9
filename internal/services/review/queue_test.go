package review

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type queueItem struct {
	ID   int64
	Name string
}

func newTestQueue(items []queueItem, approve, reject Resolver) *Queue[queueItem] {
	return NewQueue(
		func(ctx context.Context) ([]queueItem, error) { return items, nil },
		func(item queueItem) int64 { return item.ID },
		approve,
		reject,
	)
}

func TestQueueApproveRemovesItemOnSuccess(t *testing.T) {
	t.Parallel()

	items := []queueItem{{ID: 1, Name: "first"}, {ID: 2, Name: "second"}}
	queue := newTestQueue(items, func(ctx context.Context, itemID int64) error { return nil }, nil)

	if _, err := queue.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := queue.Approve(context.Background(), 1); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if queue.Len() != 1 {
		t.Fatalf("expected one item left, got %d", queue.Len())
	}
	if _, found := queue.Get(1); found {
		t.Fatal("resolved item still in the queue")
	}
	if _, found := queue.Get(2); !found {
		t.Fatal("unrelated item was pruned")
	}
}

func TestQueueKeepsItemWhenResolverFails(t *testing.T) {
	t.Parallel()

	resolveErr := errors.New("rating not found")
	queue := newTestQueue([]queueItem{{ID: 7}}, nil, func(ctx context.Context, itemID int64) error {
		return resolveErr
	})

	if _, err := queue.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := queue.Reject(context.Background(), 7); !errors.Is(err, resolveErr) {
		t.Fatalf("unexpected error: %v", err)
	}

	// The admin must see the item until the server confirms the decision.
	if _, found := queue.Get(7); !found {
		t.Fatal("item pruned after a failed decision")
	}

	// And the item is resolvable again once the failure cleared.
	if err := queue.Reject(context.Background(), 7); !errors.Is(err, resolveErr) {
		t.Fatalf("retry blocked: %v", err)
	}
}

func TestQueueRejectsUnknownItem(t *testing.T) {
	t.Parallel()

	queue := newTestQueue([]queueItem{{ID: 1}}, func(ctx context.Context, itemID int64) error { return nil }, nil)
	if _, err := queue.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if err := queue.Approve(context.Background(), 99); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
}

func TestQueueBlocksConcurrentResolveOfSameItem(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	queue := newTestQueue([]queueItem{{ID: 4}}, func(ctx context.Context, itemID int64) error {
		close(started)
		<-release
		return nil
	}, nil)

	if _, err := queue.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := queue.Approve(context.Background(), 4); err != nil {
			t.Errorf("first approve: %v", err)
		}
	}()

	<-started
	if err := queue.Approve(context.Background(), 4); !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}

	close(release)
	wg.Wait()

	if queue.Len() != 0 {
		t.Fatalf("expected empty queue, got %d items", queue.Len())
	}
}

func TestQueueUnconfiguredActionFails(t *testing.T) {
	t.Parallel()

	queue := newTestQueue([]queueItem{{ID: 3}}, func(ctx context.Context, itemID int64) error { return nil }, nil)
	if _, err := queue.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if err := queue.Reject(context.Background(), 3); err == nil {
		t.Fatal("expected an error for an unconfigured reject")
	}
}

func TestQueueRefreshReplacesLocalList(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		pending = []queueItem{{ID: 1}, {ID: 2}}
	)
	queue := NewQueue(
		func(ctx context.Context) ([]queueItem, error) {
			mu.Lock()
			defer mu.Unlock()
			return pending, nil
		},
		func(item queueItem) int64 { return item.ID },
		func(ctx context.Context, itemID int64) error { return nil },
		nil,
	)

	items, err := queue.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("unexpected count: %d", len(items))
	}

	mu.Lock()
	pending = []queueItem{{ID: 5}}
	mu.Unlock()

	items, err = queue.Refresh(context.Background())
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if len(items) != 1 || items[0].ID != 5 {
		t.Fatalf("local list not replaced: %+v", items)
	}
}
