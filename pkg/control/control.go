// Package control implements the optional external control-channel inbox
// (§5): a thread-safe queue an out-of-process debug/proxy client submits
// requests into, drained by the engine only at safe points between events —
// never from the control thread itself, and never triggering an interface
// call directly.
package control

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/vplatform/vpsim/pkg/util"
)

// Request is one control-channel command, e.g. {"stop"} or a register peek.
type Request struct {
	Kind    string `json:"kind"`
	Target  string `json:"target,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// Inbox is a thread-safe queue of pending Requests.
type Inbox interface {
	// Submit enqueues req. Safe to call from any goroutine.
	Submit(req Request) error
	// Drain returns and clears every request queued since the last Drain.
	// Called only from the engine thread, between events.
	Drain() []Request
	Close() error
}

// chanInbox is the in-process fallback used when no external channel is
// configured: a buffered channel with a non-blocking Submit, good enough for
// a single local debug client in the same process.
type chanInbox struct {
	ch chan Request
}

// NewLocalInbox creates an in-process inbox with the given buffer depth.
func NewLocalInbox(depth int) Inbox {
	return &chanInbox{ch: make(chan Request, depth)}
}

func (c *chanInbox) Submit(req Request) error {
	select {
	case c.ch <- req:
		return nil
	default:
		return fmt.Errorf("control inbox full (depth %d)", cap(c.ch))
	}
}

func (c *chanInbox) Drain() []Request {
	var out []Request
	for {
		select {
		case r := <-c.ch:
			out = append(out, r)
		default:
			return out
		}
	}
}

func (c *chanInbox) Close() error { close(c.ch); return nil }

// redisInbox backs the inbox with a Redis list, so an out-of-process debug
// proxy on another host can submit requests: RPUSH to enqueue, LPOP to
// drain, FIFO order preserved.
type redisInbox struct {
	client *redis.Client
	key    string
}

// NewRedisInbox dials addr and uses key as the Redis list backing the inbox.
func NewRedisInbox(addr, key string) (Inbox, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis control channel at %s: %w", addr, err)
	}
	return &redisInbox{client: client, key: key}, nil
}

func (r *redisInbox) Submit(req Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return r.client.RPush(context.Background(), r.key, data).Err()
}

func (r *redisInbox) Drain() []Request {
	var out []Request
	ctx := context.Background()
	for {
		val, err := r.client.LPop(ctx, r.key).Result()
		if err == redis.Nil {
			return out
		}
		if err != nil {
			util.WithField("key", r.key).Warnf("control inbox drain failed: %v", err)
			return out
		}
		var req Request
		if err := json.Unmarshal([]byte(val), &req); err != nil {
			util.WithField("key", r.key).Warnf("control inbox: malformed request dropped: %v", err)
			continue
		}
		out = append(out, req)
	}
}

func (r *redisInbox) Close() error { return r.client.Close() }
