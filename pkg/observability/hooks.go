// Package observability lets the batch writer, the cache and the HTTP API
// report events without depending on a metrics backend.
//
// Each event family has a hook interface with a no-op default. A backend
// (see the prom subpackage) is installed once at startup:
//
//	observability.Register(prom.NewHooks(registry))
//
// and the instrumented code emits through the package accessors:
//
//	observability.Batch().OnBatchStart(ctx, id)
//	observability.Batch().OnBatchComplete(ctx, id, count, elapsed, err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Batch Hooks
// =============================================================================

// BatchHooks receives events from the record accumulator.
type BatchHooks interface {
	// OnBatchStart records the first structure of a new batch.
	OnBatchStart(ctx context.Context, batchID string)

	// OnBatchComplete records a finished render, successful or not.
	OnBatchComplete(ctx context.Context, batchID string, count int, duration time.Duration, err error)

	// OnEarlyStop records a batch that hit its maximum size before the
	// upstream ran out of records.
	OnEarlyStop(ctx context.Context, batchID string, count int)

	// OnAbort records a batch discarded before rendering.
	OnAbort(ctx context.Context, batchID string, count int, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives lookups and writes of an instrumented cache, labelled
// with the kind of key.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	// OnCacheSet records a write of size bytes.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest is called before the handler; OnResponse after it, with the
	// route pattern as path.
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopBatchHooks is a no-op implementation of BatchHooks.
type NoopBatchHooks struct{}

func (NoopBatchHooks) OnBatchStart(context.Context, string)                               {}
func (NoopBatchHooks) OnBatchComplete(context.Context, string, int, time.Duration, error) {}
func (NoopBatchHooks) OnEarlyStop(context.Context, string, int)                           {}
func (NoopBatchHooks) OnAbort(context.Context, string, int, error)                        {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Registry
// =============================================================================

// hookSet is the installed set of hooks. It is replaced as a whole so that
// readers never observe a partial update.
type hookSet struct {
	batch BatchHooks
	cache CacheHooks
	http  HTTPHooks
}

var current atomic.Pointer[hookSet]

func init() { Reset() }

func update(fn func(*hookSet)) {
	for {
		old := current.Load()
		next := *old
		fn(&next)
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Register installs h for every hook interface it implements and reports
// whether it implemented any.
func Register(h any) bool {
	ok := false
	update(func(s *hookSet) {
		if b, is := h.(BatchHooks); is && b != nil {
			s.batch, ok = b, true
		}
		if c, is := h.(CacheHooks); is && c != nil {
			s.cache, ok = c, true
		}
		if x, is := h.(HTTPHooks); is && x != nil {
			s.http, ok = x, true
		}
	})
	return ok
}

// SetBatchHooks installs batch hooks. A nil h is ignored.
func SetBatchHooks(h BatchHooks) {
	if h != nil {
		update(func(s *hookSet) { s.batch = h })
	}
}

// SetCacheHooks installs cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(s *hookSet) { s.cache = h })
	}
}

// SetHTTPHooks installs HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(s *hookSet) { s.http = h })
	}
}

// Batch returns the installed batch hooks.
func Batch() BatchHooks { return current.Load().batch }

// Cache returns the installed cache hooks.
func Cache() CacheHooks { return current.Load().cache }

// HTTP returns the installed HTTP hooks.
func HTTP() HTTPHooks { return current.Load().http }

// Reset restores the no-op hooks. Tests call it in cleanup.
func Reset() {
	current.Store(&hookSet{
		batch: NoopBatchHooks{},
		cache: NoopCacheHooks{},
		http:  NoopHTTPHooks{},
	})
}
