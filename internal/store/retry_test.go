package store

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/iwvelando/business-forecast/pkg/version"
)

// flakyStore fails the first n calls of every operation.
type flakyStore struct {
	*Memory
	failures int
	calls    int
	err      error
	ids      []string
}

func (f *flakyStore) fail() error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func (f *flakyStore) Create(ctx context.Context, s version.Snapshot) (version.Snapshot, error) {
	f.ids = append(f.ids, s.ID)
	if err := f.fail(); err != nil {
		return version.Snapshot{}, err
	}
	return f.Memory.Create(ctx, s)
}

func (f *flakyStore) List(ctx context.Context) ([]version.Snapshot, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.Memory.List(ctx)
}

func (f *flakyStore) Get(ctx context.Context, id string) (version.Snapshot, error) {
	f.calls++
	return f.Memory.Get(ctx, id)
}

// slowStore blocks until its context ends.
type slowStore struct {
	*Memory
}

func (slowStore) List(ctx context.Context) ([]version.Snapshot, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRetryingRecoversFromTransientFailures(t *testing.T) {
	inner := &flakyStore{Memory: NewMemory(), failures: 2, err: errors.New("connection reset")}
	r := NewRetrying(nil, inner, time.Second, 2, time.Millisecond)

	created, err := r.Create(context.Background(), sampleSnapshot(t, "retry"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %v, expected 3", inner.calls)
	}
	for _, id := range inner.ids {
		if id != created.ID {
			t.Errorf("retry used id %v, expected every attempt to use %v", id, created.ID)
		}
	}
}

func TestRetryingGivesUp(t *testing.T) {
	inner := &flakyStore{Memory: NewMemory(), failures: 10, err: errors.New("connection refused")}
	r := NewRetrying(nil, inner, time.Second, 2, time.Millisecond)

	if _, err := r.List(context.Background()); err == nil {
		t.Fatal("List() expected error but got none")
	}
	if inner.calls != 3 {
		t.Errorf("calls = %v, expected 3", inner.calls)
	}
}

func TestRetryingDoesNotRetryNotFound(t *testing.T) {
	inner := &flakyStore{Memory: NewMemory()}
	r := NewRetrying(nil, inner, time.Second, 3, time.Millisecond)

	if _, err := r.Get(context.Background(), "missing"); !errors.Is(err, version.ErrNotFound) {
		t.Fatalf("Get() error = %v, expected ErrNotFound", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %v, expected 1", inner.calls)
	}
}

func TestRetryingDoesNotRetryEncodingErrors(t *testing.T) {
	inner := &flakyStore{Memory: NewMemory()}
	r := NewRetrying(nil, inner, time.Second, 3, time.Millisecond)

	snap := sampleSnapshot(t, "unencodable")
	snap.Payload.Monthly.Revenue[0] = math.Inf(1)

	if _, err := r.Create(context.Background(), snap); !errors.Is(err, version.ErrEncoding) {
		t.Fatalf("Create() error = %v, expected ErrEncoding", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %v, expected 1", inner.calls)
	}
}

func TestRetryingTimeout(t *testing.T) {
	r := NewRetrying(nil, slowStore{NewMemory()}, 10*time.Millisecond, 0, 0)

	start := time.Now()
	_, err := r.List(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("List() error = %v, expected context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("List() took %v, expected the timeout to bound it", elapsed)
	}
}

func TestRetryingStopsOnCancelledParent(t *testing.T) {
	inner := &flakyStore{Memory: NewMemory(), failures: 10, err: errors.New("boom")}
	r := NewRetrying(nil, inner, time.Second, 5, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if _, err := r.List(ctx); err == nil {
		t.Fatal("List() expected error but got none")
	}
	if inner.calls != 1 {
		t.Errorf("calls = %v, expected 1", inner.calls)
	}
}
