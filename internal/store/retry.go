package store

import (
	"context"
	"errors"
	"time"

	"github.com/iwvelando/business-forecast/pkg/version"
	"go.uber.org/zap"
)

// Retrying bounds every call to the wrapped store with a timeout and retries
// failures with exponential backoff. Not-found errors and cancellation of the
// caller's context are returned immediately.
type Retrying struct {
	inner   version.Store
	timeout time.Duration
	retries int
	backoff time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewRetrying wraps inner. A zero timeout disables the per-call deadline.
func NewRetrying(logger *zap.Logger, inner version.Store, timeout time.Duration, retries int, backoff time.Duration) *Retrying {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retries < 0 {
		retries = 0
	}
	return &Retrying{
		inner:   inner,
		timeout: timeout,
		retries: retries,
		backoff: backoff,
		logger:  logger,
		now:     time.Now,
	}
}

// Create stamps the snapshot once, so every retry inserts the same id.
func (r *Retrying) Create(ctx context.Context, s version.Snapshot) (version.Snapshot, error) {
	if s.ID == "" {
		s = version.Stamp(s, r.now())
	}
	var created version.Snapshot
	err := r.do(ctx, "store.Create", func(ctx context.Context) error {
		var err error
		created, err = r.inner.Create(ctx, s)
		return err
	})
	return created, err
}

// Get reads one snapshot.
func (r *Retrying) Get(ctx context.Context, id string) (version.Snapshot, error) {
	var snap version.Snapshot
	err := r.do(ctx, "store.Get", func(ctx context.Context) error {
		var err error
		snap, err = r.inner.Get(ctx, id)
		return err
	})
	return snap, err
}

// List lists snapshots newest first.
func (r *Retrying) List(ctx context.Context) ([]version.Snapshot, error) {
	var snapshots []version.Snapshot
	err := r.do(ctx, "store.List", func(ctx context.Context) error {
		var err error
		snapshots, err = r.inner.List(ctx)
		return err
	})
	return snapshots, err
}

// Delete removes one snapshot. A retry after a delete that committed but
// failed to report reports not-found.
func (r *Retrying) Delete(ctx context.Context, id string) error {
	return r.do(ctx, "store.Delete", func(ctx context.Context) error {
		return r.inner.Delete(ctx, id)
	})
}

func (r *Retrying) do(ctx context.Context, op string, call func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			wait := r.backoff << (attempt - 1)
			r.logger.Warn("retrying store call",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
				zap.Error(err),
			)
			if sleepErr := sleep(ctx, wait); sleepErr != nil {
				return err
			}
		}

		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if r.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		}
		err = call(callCtx)
		cancel()

		if err == nil || !retryable(ctx, err) {
			return err
		}
	}
	return err
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, version.ErrNotFound) && !errors.Is(err, version.ErrEncoding)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
