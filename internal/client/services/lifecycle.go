package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/traintrack/internal/client/api"
	"github.com/dmitrijs2005/traintrack/internal/client/storage"
	"github.com/dmitrijs2005/traintrack/internal/logging"
)

// Lifecycle drives the background sync loop: a periodic pass, a
// connectivity watcher that fires an extra pass on the offline-to-online
// transition, and the login/logout transitions around them.
type Lifecycle struct {
	engine    *SyncEngine
	bootstrap *Bootstrap
	client    api.Client
	tokens    api.TokenSource
	repos     *storage.Repositories
	log       logging.Logger

	syncInterval  time.Duration
	probeInterval time.Duration

	trigger  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLifecycle constructs a Lifecycle. syncInterval paces the periodic
// pass; probeInterval paces the connectivity probe.
func NewLifecycle(engine *SyncEngine, bootstrap *Bootstrap, client api.Client, tokens api.TokenSource,
	repos *storage.Repositories, log logging.Logger, syncInterval, probeInterval time.Duration) *Lifecycle {
	return &Lifecycle{
		engine:        engine,
		bootstrap:     bootstrap,
		client:        client,
		tokens:        tokens,
		repos:         repos,
		log:           log,
		syncInterval:  syncInterval,
		probeInterval: probeInterval,
		trigger:       make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
}

// OnLogin runs the bootstrap refresh followed by an immediate sync pass,
// pushing whatever local edits the refresh preserved.
func (l *Lifecycle) OnLogin(ctx context.Context) error {
	if _, err := l.bootstrap.Run(ctx); err != nil {
		return err
	}
	l.engine.RunPass(ctx)
	return nil
}

// Start launches the background loops. They stop when ctx is cancelled
// or Stop is called.
func (l *Lifecycle) Start(ctx context.Context) {
	l.wg.Add(2)
	go l.runSyncLoop(ctx)
	go l.runOnlineWatcher(ctx)
}

func (l *Lifecycle) runSyncLoop(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.engine.RunPass(ctx)
		case <-l.trigger:
			l.engine.RunPass(ctx)
		case <-l.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (l *Lifecycle) runOnlineWatcher(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.probeInterval)
	defer ticker.Stop()

	online := true
	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := l.client.Ping(pctx)
			cancel()

			if err != nil {
				if online {
					online = false
					l.log.Info(ctx, "server unreachable, switching to offline mode")
				}
			} else if !online {
				online = true
				l.log.Info(ctx, "server reachable again, triggering sync")
				l.TriggerNow()
			}
		case <-l.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// TriggerNow requests an immediate sync pass. Non-blocking: if a trigger
// is already pending the request is coalesced into it.
func (l *Lifecycle) TriggerNow() {
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}

// Stop halts the background loops and waits for them to exit. Safe to
// call more than once.
func (l *Lifecycle) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
	l.wg.Wait()
}

// Logout attempts a final sync pass, then forgets the token and wipes
// the local store. The final pass is best effort: items that cannot be
// pushed are logged and lost with the wipe, never blocking the logout
// itself. The background loops keep running; against an empty store they
// are no-ops until the next login.
func (l *Lifecycle) Logout(ctx context.Context) error {
	report := l.engine.RunPass(ctx)
	if report.Offline {
		l.log.Warn(ctx, "logging out while offline, unsynced local changes will be lost")
	} else if n := report.Failed(); n > 0 {
		l.log.Warn(ctx, "final sync left items unpushed, they will be lost", "failed", n)
	}

	if err := l.tokens.Clear(ctx); err != nil {
		return err
	}
	return l.repos.Reset(ctx)
}
