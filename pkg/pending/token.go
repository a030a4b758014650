package pending

import (
	"context"
	"sync"

	"github.com/nodewatch/viewfs/pkg/encoding"
	"github.com/nodewatch/viewfs/pkg/random"
)

// SyncToken represents a single outstanding "sync to now" request: a promise
// that the query surface can wait on until the reconciliation worker has
// processed every change that was pending at the moment the token was
// issued (spec.md §4.3/I4).
type SyncToken struct {
	// id is used only for logging; tokens are compared by pointer identity
	// everywhere else.
	id string

	once     sync.Once
	done     chan struct{}
	desynced bool
}

// NewSyncToken creates a new, unfulfilled sync token.
func NewSyncToken() (*SyncToken, error) {
	raw, err := random.New(16)
	if err != nil {
		return nil, err
	}
	return &SyncToken{
		id:   encoding.EncodeBase62(raw),
		done: make(chan struct{}),
	}, nil
}

// ID returns the token's identifier, for use in log lines.
func (s *SyncToken) ID() string {
	return s.id
}

// Fulfill marks the token as satisfied. desynced indicates that a desync
// (and subsequent recrawl) occurred while this token was outstanding, which
// the query surface surfaces to the caller rather than silently treating as
// an ordinary fulfillment. Fulfill is idempotent; only the first call has an
// effect.
func (s *SyncToken) Fulfill(desynced bool) {
	s.once.Do(func() {
		s.desynced = desynced
		close(s.done)
	})
}

// Wait blocks until the token is fulfilled or ctx is done, whichever comes
// first. It reports whether a desync occurred while the token was
// outstanding.
func (s *SyncToken) Wait(ctx context.Context) (desynced bool, err error) {
	select {
	case <-s.done:
		return s.desynced, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
