package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []Message
	failures int
	done     chan struct{}
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("transient failure")
	}
	s.messages = append(s.messages, msg)
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	return nil
}

func (s *recordingSender) delivered() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

func TestDispatcherDelivers(t *testing.T) {
	sender := &recordingSender{done: make(chan struct{})}
	done := sender.done
	d := NewDispatcher(sender, DispatcherConfig{Workers: 1, Logger: zap.NewNop()})
	d.Start(context.Background())
	defer d.Stop()

	require.NoError(t, d.Enqueue(Message{Nama: "Ana"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("message never delivered")
	}
	require.Len(t, sender.delivered(), 1)
	assert.Equal(t, "Ana", sender.delivered()[0].Nama)
}

func TestDispatcherRetriesTransientFailure(t *testing.T) {
	sender := &recordingSender{failures: 2, done: make(chan struct{})}
	done := sender.done
	d := NewDispatcher(sender, DispatcherConfig{
		Workers:    1,
		MaxRetries: 3,
		RetryDelay: 10 * time.Millisecond,
		Logger:     zap.NewNop(),
	})
	d.Start(context.Background())
	defer d.Stop()

	require.NoError(t, d.Enqueue(Message{Nama: "Ana"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("message never delivered after retries")
	}
	assert.Len(t, sender.delivered(), 1)
}

func TestDispatcherEnqueueBeforeStart(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, DispatcherConfig{Logger: zap.NewNop()})
	assert.Error(t, d.Enqueue(Message{Nama: "Ana"}))
}

func TestDispatcherStartStopIdempotent(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, DispatcherConfig{Logger: zap.NewNop()})
	d.Start(context.Background())
	d.Start(context.Background())
	d.Stop()
	d.Stop()
}
