package syncstate

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Reconciler runs Service.Reconcile on an interval until stopped.
type Reconciler struct {
	svc      *Service
	interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewReconciler creates a reconciler; a non-positive interval disables it.
func NewReconciler(svc *Service, interval time.Duration) *Reconciler {
	return &Reconciler{svc: svc, interval: interval}
}

// Start launches the loop. The first pass runs immediately.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running || r.interval <= 0 {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.running = true

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.runOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.runOnce(ctx)
			}
		}
	}()
	r.svc.log.Info("reconciler started", "interval", r.interval)
}

// Stop cancels the loop and waits for an in-flight pass.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.cancel()
	r.mu.Unlock()

	r.wg.Wait()
	r.svc.log.Info("reconciler stopped")
}

func (r *Reconciler) runOnce(ctx context.Context) {
	_, err := r.svc.Reconcile(ctx)
	switch {
	case err == nil, errors.Is(err, ErrReconcileLocked):
	case errors.Is(err, context.Canceled):
	default:
		r.svc.log.Error("reconcile pass failed", "error", err)
	}
}
