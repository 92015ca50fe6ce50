package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sender delivers one notification message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// DispatcherConfig tunes the background delivery workers.
type DispatcherConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Dispatcher pushes notifications through a small worker pool so submission
// requests never wait on the chat API. Failed deliveries are retried a few
// times and then dropped with a warning; notification failure must never
// surface to the submitter.
type Dispatcher struct {
	sender Sender

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	queue   chan delivery
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

type delivery struct {
	msg     Message
	attempt int
}

// NewDispatcher builds a dispatcher around the given sender.
func NewDispatcher(sender Sender, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 8
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Dispatcher{
		sender:     sender,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		queue:      make(chan delivery, cfg.BufferSize),
	}
}

// Start launches the delivery workers. Safe to call once.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.started = true
}

// Stop cancels workers and waits for them to drain.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
}

// Enqueue schedules a message for delivery. A full buffer drops the message
// with a warning rather than blocking the caller.
func (d *Dispatcher) Enqueue(msg Message) error {
	d.mu.Lock()
	started := d.started
	d.mu.Unlock()
	if !started {
		return fmt.Errorf("notify dispatcher not started")
	}

	select {
	case d.queue <- delivery{msg: msg}:
		return nil
	default:
		d.logger.Warn("notification buffer full, dropping message", zap.String("nama", msg.Nama))
		return nil
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case item := <-d.queue:
			if err := d.sender.Send(d.ctx, item.msg); err != nil {
				d.handleFailure(item, err)
			}
		}
	}
}

func (d *Dispatcher) handleFailure(item delivery, err error) {
	item.attempt++
	if item.attempt > d.maxRetries {
		d.logger.Warn("notification dropped after retries",
			zap.String("nama", item.msg.Nama), zap.Int("attempts", item.attempt), zap.Error(err))
		return
	}
	d.logger.Warn("notification failed, retrying",
		zap.String("nama", item.msg.Nama), zap.Int("attempt", item.attempt), zap.Error(err))

	go func(item delivery) {
		timer := time.NewTimer(d.retryDelay)
		defer timer.Stop()
		select {
		case <-d.ctx.Done():
			return
		case <-timer.C:
			select {
			case d.queue <- item:
			default:
			}
		}
	}(item)
}
