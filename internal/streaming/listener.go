package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	readDeadline = 60 * time.Second
	pingInterval = 30 * time.Second
	pingTimeout  = 10 * time.Second
)

// Listener maintains a websocket subscription to a live-update stream
// and feeds decoded events to the merger. Connection loss triggers a
// reconnect with exponential backoff; buffers are never touched on
// failure, so a dropped stream degrades to fetch-only operation.
type Listener struct {
	url    string
	merger *Merger
	log    zerolog.Logger
}

func NewListener(url string, merger *Merger, log zerolog.Logger) *Listener {
	return &Listener{url: url, merger: merger, log: log}
}

// Run consumes the stream until the context is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0 // retry forever

	operation := func() error {
		if err := l.connect(ctx, bo.Reset); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			l.log.Warn().Err(err).Str("url", l.url).Msg("stream connection lost, reconnecting")
			return err
		}
		return nil
	}
	return backoff.Retry(operation, backoff.WithContext(bo, ctx))
}

// connect establishes the websocket and pumps events until the
// connection breaks. onConnected fires after a successful dial so the
// retry backoff restarts from its initial interval.
func (l *Listener) connect(ctx context.Context, onConnected func()) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to stream: %w", err)
	}
	defer conn.Close()
	if onConnected != nil {
		onConnected()
	}

	connID := uuid.NewString()
	l.log.Info().Str("conn_id", connID).Str("url", l.url).Msg("stream connected")

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return fmt.Errorf("failed to set read deadline: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	var closeOnce sync.Once

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(pingTimeout)); err != nil {
					l.log.Warn().Err(err).Str("conn_id", connID).Msg("ping failed")
					closeOnce.Do(func() { close(done) })
					return
				}
			case <-ctx.Done():
				conn.Close()
				return
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return fmt.Errorf("connection closed by ping failure")
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			closeOnce.Do(func() { close(done) })
			return fmt.Errorf("read error: %w", err)
		}

		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			l.log.Warn().Err(err).Str("conn_id", connID).Msg("failed to parse stream event")
			continue
		}
		l.merger.Handle(&event)
	}
}
