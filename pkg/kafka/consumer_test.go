package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeReader hands out queued messages and blocks once they run out.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafkago.Message
	fetched   int
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.fetched++
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func fastBackOff() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }

func TestConsume_RetriesFailedMessageBeforeMovingOn(t *testing.T) {
	reader := &fakeReader{queue: []kafkago.Message{{Offset: 10}, {Offset: 11}}}
	c := NewConsumerWithReader(reader, fastBackOff, zap.NewNop())

	var mu sync.Mutex
	var seen []int64
	failuresLeft := 2
	handler := func(_ context.Context, msg kafkago.Message) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, msg.Offset)
		if msg.Offset == 10 && failuresLeft > 0 {
			failuresLeft--
			return errors.New("database unavailable")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Consume(ctx, handler) }()

	require.Eventually(t, func() bool { return len(reader.commits()) == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	// offset 10 is handled three times before 11 is even fetched
	assert.Equal(t, []int64{10, 10, 10, 11}, seen)
	assert.Equal(t, []int64{10, 11}, reader.commits())
}

func TestConsume_CancelDuringRetryLeavesOffsetUncommitted(t *testing.T) {
	reader := &fakeReader{queue: []kafkago.Message{{Offset: 7}, {Offset: 8}}}
	c := NewConsumerWithReader(reader, fastBackOff, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	attempts := make(chan struct{}, 100)
	handler := func(context.Context, kafkago.Message) error {
		select {
		case attempts <- struct{}{}:
		default:
		}
		return errors.New("still failing")
	}

	done := make(chan error, 1)
	go func() { done <- c.Consume(ctx, handler) }()

	for i := 0; i < 3; i++ {
		select {
		case <-attempts:
		case <-time.After(2 * time.Second):
			t.Fatal("handler was not retried")
		}
	}
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Empty(t, reader.commits())
	reader.mu.Lock()
	assert.Equal(t, 1, reader.fetched)
	reader.mu.Unlock()
}
