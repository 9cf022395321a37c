package session

import (
	"context"
	"io"
	"log"
	"sync"
	"time"
)

// Supervisor keeps a Client connected, redialling after every failure.
// It runs as a background goroutine and is safe to stop via its context
// or the Stop method.
type Supervisor struct {
	client   *Client
	interval time.Duration
	onState  func(connected bool)
	logger   *log.Logger

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// SupervisorConfig holds the parameters for NewSupervisor.
type SupervisorConfig struct {
	// ReconnectInterval is the pause between attempts.  Defaults to 5s.
	ReconnectInterval time.Duration

	// OnState is told whenever the relay link comes up or goes down.
	OnState func(connected bool)
}

// NewSupervisor creates a supervisor but does not start it.
func NewSupervisor(c *Client, cfg SupervisorConfig, logger *log.Logger) *Supervisor {
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 5 * time.Second
	}
	if cfg.OnState == nil {
		cfg.OnState = func(bool) {}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Supervisor{
		client:   c,
		interval: cfg.ReconnectInterval,
		onState:  cfg.OnState,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start connects immediately, then keeps retrying on the configured
// interval until ctx is cancelled or Stop is called.
func (s *Supervisor) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
	s.logger.Printf("relay session started (url=%s, reconnect=%s)", s.client.cfg.RelayURL, s.interval)
}

// Stop signals the supervisor to exit and waits for it to finish.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		} else {
			close(s.done)
		}
	})
	<-s.done
}

func (s *Supervisor) loop(ctx context.Context) {
	defer close(s.done)

	for {
		err := s.client.Run(ctx, func() { s.onState(true) })
		s.onState(false)
		if ctx.Err() != nil {
			return
		}
		s.logger.Printf("relay session lost: %v; retrying in %s", err, s.interval)

		t := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}
