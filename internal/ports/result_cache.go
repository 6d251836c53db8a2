package ports

import (
	"context"
	"time"
)

// Port: a cache of finished solve runs keyed by instance fingerprint.
type ResultCache interface {
	// Return (nil, false, nil) on a miss.
	Get(ctx context.Context, key string) (*SolveRun, bool, error)
	Put(ctx context.Context, key string, run *SolveRun, ttl time.Duration) error
}
