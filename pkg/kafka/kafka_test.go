package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

type payload struct {
	Model string `json:"model"`
	Hits  int    `json:"hits"`
}

func TestPublishRoundTripsThroughHeaders(t *testing.T) {
	w := &recordingWriter{}
	p := newProducer(w, "events")

	require.NoError(t, p.Publish(context.Background(), Event{
		Key: "boolean", Type: "search", Value: payload{Model: "boolean", Hits: 3},
	}))
	require.Len(t, w.messages, 1)

	msg := toMessage(w.messages[0])
	assert.Equal(t, "search", msg.Type)
	assert.Equal(t, []byte("boolean"), msg.Key)

	decoded, err := DecodeJSON[payload](msg.Value)
	require.NoError(t, err)
	assert.Equal(t, payload{Model: "boolean", Hits: 3}, decoded)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishBatch(t *testing.T) {
	w := &recordingWriter{}
	p := newProducer(w, "events")
	require.NoError(t, p.PublishBatch(context.Background(), nil))
	assert.Empty(t, w.messages)

	require.NoError(t, p.PublishBatch(context.Background(), []Event{
		{Key: "a", Value: 1},
		{Key: "b", Value: 2},
	}))
	assert.Len(t, w.messages, 2)
	assert.Empty(t, toMessage(w.messages[0]).Type)
}

func TestPublishErrors(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := newProducer(w, "events")
	err := p.Publish(context.Background(), Event{Key: "k", Value: "v"})
	assert.ErrorContains(t, err, "broker down")

	err = p.Publish(context.Background(), Event{Key: "k", Value: make(chan int)})
	assert.ErrorContains(t, err, "marshaling")
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	_, err := DecodeJSON[payload]([]byte("{"))
	assert.Error(t, err)
}

// scriptedReader serves its messages in order, failing once where err is
// set, then blocks until the context ends.
type scriptedReader struct {
	mu        sync.Mutex
	script    []kafka.Message
	failFirst error
	committed []int64
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if r.failFirst != nil {
		err := r.failFirst
		r.failFirst = nil
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.script) > 0 {
		msg := r.script[0]
		r.script = r.script[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *scriptedReader) Close() error { return nil }

func TestConsumerCommitsOnlyHandledMessages(t *testing.T) {
	r := &scriptedReader{
		failFirst: errors.New("leader not available"),
		script: []kafka.Message{
			{Offset: 1, Value: []byte("ok"), Headers: []kafka.Header{{Key: typeHeader, Value: []byte("search")}}},
			{Offset: 2, Value: []byte("bad")},
			{Offset: 3, Value: []byte("ok")},
		},
	}
	var mu sync.Mutex
	var seen []string
	c := newConsumer(r, "events", func(_ context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, msg.Type+":"+string(msg.Value))
		if string(msg.Value) == "bad" {
			return errors.New("undecodable")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []string{"search:ok", ":bad", ":ok"}, seen)
	assert.Equal(t, []int64{1, 3}, r.committed)
}
