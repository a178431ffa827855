package proofcheck

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultIdleWindow is how long the pooled engine survives with no
// extraction requests before it is torn down.
const DefaultIdleWindow = 30 * time.Second

// EnginePool holds at most one live recognition engine and tears it down
// after an idle window with no requests. It exists purely to amortize
// expensive engine startup; its absence would change latency, not results.
//
// The pool is safe for concurrent use. A shutdown racing a concurrently
// arriving request is resolved by the mutex plus a generation counter:
// every Acquire invalidates any pending teardown scheduled before it.
type EnginePool struct {
	factory    EngineFactory
	idleWindow time.Duration

	mu        sync.Mutex
	engine    RecognitionEngine
	idleTimer *time.Timer
	gen       uint64
}

// NewEnginePool creates an empty pool. The engine is not started until the
// first Acquire. idleWindow <= 0 selects DefaultIdleWindow.
func NewEnginePool(factory EngineFactory, idleWindow time.Duration) *EnginePool {
	if idleWindow <= 0 {
		idleWindow = DefaultIdleWindow
	}
	return &EnginePool{factory: factory, idleWindow: idleWindow}
}

// Acquire returns the live engine, creating it if necessary, and cancels
// any pending idle shutdown. Callers must pair every successful Acquire
// with a Release once the recognition call finishes.
func (p *EnginePool) Acquire(ctx context.Context) (RecognitionEngine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.gen++
	if p.idleTimer != nil {
		p.idleTimer.Stop()
		p.idleTimer = nil
	}

	if p.engine != nil {
		return p.engine, nil
	}

	eng, err := p.factory(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("proofcheck: recognition engine started")
	p.engine = eng
	return eng, nil
}

// Release schedules an idle shutdown of the engine. A new Acquire before
// the window elapses cancels it; the timer is reset, never stacked.
func (p *EnginePool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine == nil {
		return
	}
	if p.idleTimer != nil {
		p.idleTimer.Stop()
	}
	gen := p.gen
	p.idleTimer = time.AfterFunc(p.idleWindow, func() { p.idleShutdown(gen) })
}

// idleShutdown tears the engine down unless a newer Acquire has happened
// since the timer was armed.
func (p *EnginePool) idleShutdown(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gen != gen || p.engine == nil {
		return
	}
	if err := p.engine.Close(); err != nil {
		slog.Warn("proofcheck: engine close failed", "error", err)
	}
	slog.Debug("proofcheck: recognition engine stopped after idle window")
	p.engine = nil
	p.idleTimer = nil
}

// Close tears the engine down immediately. Used on daemon shutdown.
func (p *EnginePool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.gen++
	if p.idleTimer != nil {
		p.idleTimer.Stop()
		p.idleTimer = nil
	}
	if p.engine == nil {
		return nil
	}
	err := p.engine.Close()
	p.engine = nil
	return err
}
