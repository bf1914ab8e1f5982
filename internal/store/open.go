package store

import (
	"context"
	"fmt"
	"io"

	"github.com/iwvelando/business-forecast/internal/config"
	"github.com/iwvelando/business-forecast/pkg/constants"
	"github.com/iwvelando/business-forecast/pkg/version"
	"go.uber.org/zap"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the configured store wrapped in the retry policy. The returned
// closer releases the underlying database, if any.
func Open(ctx context.Context, conf config.StoreConfig, logger *zap.Logger) (version.Store, io.Closer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var inner version.Store
	var closer io.Closer = nopCloser{}

	switch conf.Driver {
	case "", constants.StoreDriverMemory:
		inner = NewMemory()
	case constants.StoreDriverSQLite:
		path := conf.Path
		if path == "" {
			path = constants.DefaultStorePath
		}
		db, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		inner, closer = db, db
	case constants.StoreDriverPostgres:
		db, err := OpenPostgres(ctx, conf.ResolvedDSN())
		if err != nil {
			return nil, nil, err
		}
		inner, closer = db, db
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", conf.Driver)
	}

	logger.Debug("opened version store",
		zap.String("op", "store.Open"),
		zap.String("driver", conf.Driver),
		zap.Duration("timeout", conf.Timeout),
		zap.Int("retries", conf.Retries),
	)
	return NewRetrying(logger, inner, conf.Timeout, conf.Retries, conf.RetryBackoff), closer, nil
}
