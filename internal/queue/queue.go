package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	connectRetryDelay = 3 * time.Second
	fetchWait         = 5 * time.Second
)

// Queue is a durable JetStream work queue. Messages are delivered
// at-least-once: a message stays pending until the consumer acks it, and is
// redelivered if the process dies mid-job.
type Queue struct {
	conn *nats.Conn
	sub  *nats.Subscription
}

type Options struct {
	URL     string
	Stream  string
	Subject string
	Durable string
}

// Message is one delivered job payload. Ack removes it from the stream;
// an unacked message is redelivered after the ack wait elapses.
type Message struct {
	msg *nats.Msg
}

func (m *Message) Body() []byte {
	return m.msg.Data
}

func (m *Message) Ack() error {
	return m.msg.Ack()
}

// Connect dials NATS, provisioning the stream and durable consumer if they
// do not exist yet. Like the rest of the infrastructure this blocks and
// retries until the broker is reachable or ctx is cancelled.
func Connect(ctx context.Context, opts Options) (*Queue, error) {
	var conn *nats.Conn
	for {
		var err error
		conn, err = nats.Connect(opts.URL,
			nats.Name("content-droid-processor"),
			nats.Timeout(5*time.Second),
			nats.MaxReconnects(-1),
		)
		if err == nil {
			log.Println("NATS connection established")
			break
		}

		log.Printf("[!] NATS unavailable (%v), retrying in %v...", err, connectRetryDelay)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("giving up connecting to NATS: %w", ctx.Err())
		case <-time.After(connectRetryDelay):
		}
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	// Declare the stream (idempotent, mirrors a durable queue declare)
	if _, err := js.StreamInfo(opts.Stream); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			conn.Close()
			return nil, fmt.Errorf("failed to look up stream %s: %w", opts.Stream, err)
		}
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      opts.Stream,
			Subjects:  []string{opts.Subject},
			Retention: nats.WorkQueuePolicy,
			Storage:   nats.FileStorage,
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create stream %s: %w", opts.Stream, err)
		}
		log.Printf("Stream declared: %s (subject %s)", opts.Stream, opts.Subject)
	}

	// Durable pull consumer, one unacked message at a time so each worker
	// holds at most one job.
	sub, err := js.PullSubscribe(opts.Subject, opts.Durable,
		nats.AckExplicit(),
		nats.MaxAckPending(1),
		nats.AckWait(30*time.Minute),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", opts.Subject, err)
	}

	return &Queue{conn: conn, sub: sub}, nil
}

// Next blocks for up to the fetch window and returns the next job, or
// (nil, nil) when no job arrived in time.
func (q *Queue) Next(ctx context.Context) (*Message, error) {
	msgs, err := q.sub.Fetch(1, nats.MaxWait(fetchWait))
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) {
			return nil, nil // No job available, retry
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return &Message{msg: msgs[0]}, nil
}

func (q *Queue) Healthy() bool {
	return q != nil && q.conn != nil && q.conn.Status() == nats.CONNECTED
}

func (q *Queue) Close() {
	if q == nil {
		return
	}
	q.conn.Drain()
	q.conn.Close()
}
