// Package cookie implements the cookie sync registry described in
// spec.md §6: the external collaborator that turns "a cookie file was
// observed" into a causal fence for the sync-to-now protocol, without cookie
// files ever becoming nodes in the view (invariants I2/I3).
package cookie

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/nodewatch/viewfs/pkg/logging"
)

// DefaultPrefix is the cookie file name prefix this module recognizes when
// no other prefix is configured, matching the teacher's watchman analogue's
// default of a dot-prefixed sentinel name.
const DefaultPrefix = ".watch-cookie-"

// Registry is the contract the reconciliation core consumes (spec.md §6):
// classify a path as a cookie, record an observation of one, and abort every
// outstanding observation (used on desync and on full-crawl completion).
//
// Cookie *creation* on disk is explicitly out of scope (spec.md §1); this
// package only classifies and tracks observations of cookies some other
// component writes.
type Registry interface {
	// IsCookiePrefix reports whether path names a cookie file.
	IsCookiePrefix(path string) bool
	// NotifyCookie records that a cookie at path was observed.
	NotifyCookie(path string)
	// AbortAllCookies fails every outstanding waiter, used when the
	// watcher is known to have dropped events and cookie observations
	// made during recovery can't be trusted.
	AbortAllCookies()
}

// waiter is a single client awaiting observation of one specific cookie
// path.
type waiter struct {
	path string
	done chan struct{}
}

// InMemoryRegistry is a concrete Registry backed by an in-process map of
// outstanding waiters, suitable for a single-process deployment of the
// reconciliation core (as opposed to watchman's original design, where the
// registry is shared across a long-lived daemon process and many clients).
type InMemoryRegistry struct {
	mu      sync.Mutex
	prefix  string
	waiters []*waiter
	logger  *logging.Logger
}

// NewInMemoryRegistry creates a registry recognizing cookies named with the
// given prefix. An empty prefix falls back to DefaultPrefix.
func NewInMemoryRegistry(prefix string, logger *logging.Logger) *InMemoryRegistry {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &InMemoryRegistry{prefix: prefix, logger: logger}
}

// IsCookiePrefix reports whether the base name of path begins with the
// registry's configured cookie prefix.
func (r *InMemoryRegistry) IsCookiePrefix(path string) bool {
	return strings.HasPrefix(filepath.Base(path), r.prefix)
}

// WaitForCookie registers interest in observing a cookie at path and returns
// a channel that's closed either when that cookie is observed or when
// AbortAllCookies is called. The channel alone doesn't say which of the two
// happened.
func (r *InMemoryRegistry) WaitForCookie(path string) <-chan struct{} {
	w := &waiter{path: path, done: make(chan struct{})}

	r.mu.Lock()
	r.waiters = append(r.waiters, w)
	r.mu.Unlock()

	return w.done
}

// NotifyCookie wakes every waiter registered for path.
func (r *InMemoryRegistry) NotifyCookie(path string) {
	r.logger.Debugf("observed cookie %s", path)

	r.mu.Lock()
	defer r.mu.Unlock()

	remaining := r.waiters[:0]
	for _, w := range r.waiters {
		if w.path == path {
			close(w.done)
		} else {
			remaining = append(remaining, w)
		}
	}
	r.waiters = remaining
}

// AbortAllCookies wakes every outstanding waiter without recording an
// observation, used when a desync means cookie observations collected
// during recovery can't be trusted (spec.md §4.1 step 6, §4.4).
func (r *InMemoryRegistry) AbortAllCookies() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.waiters) > 0 {
		r.logger.Debugf("aborting %d outstanding cookie waiter(s)", len(r.waiters))
	}
	for _, w := range r.waiters {
		close(w.done)
	}
	r.waiters = nil
}
