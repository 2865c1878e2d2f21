package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/roombridge/internal/core"
)

var ErrSocketClosed = errors.New("socket closed")

const writeWait = 5 * time.Second

// socket is one side of the bridge. Frames are written by a single
// writePump; Send only queues.
type socket struct {
	side string
	conn *websocket.Conn
	send chan core.Frame
	done chan struct{}
	once sync.Once
}

var _ core.FrameSender = (*socket)(nil)

func newSocket(side string, conn *websocket.Conn, buffer int) *socket {
	return &socket{
		side: side,
		conn: conn,
		send: make(chan core.Frame, buffer),
		done: make(chan struct{}),
	}
}

// Send queues f, blocking while the queue is full.
func (s *socket) Send(ctx context.Context, f core.Frame) error {
	select {
	case <-s.done:
		return ErrSocketClosed
	default:
	}
	select {
	case s.send <- f:
		return nil
	case <-s.done:
		return ErrSocketClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *socket) Close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

func (s *socket) writePump(ctx context.Context, pingPeriod time.Duration) {
	var ping <-chan time.Time
	if pingPeriod > 0 {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		ping = ticker.C
	}
	logger := log.With().Str("module", "adapters.ws").Str("side", s.side).Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case data := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Error().Err(err).Msg("writePump set deadline")
				s.Close()
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Error().Err(err).Msg("writePump write error")
				s.Close()
				return
			}
		case <-ping:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logger.Warn().Err(err).Msg("writePump ping failed")
				s.Close()
				return
			}
		}
	}
}

func (s *socket) readPump(ctx context.Context, readLimit int64, pingPeriod time.Duration, handle func(context.Context, []byte) error) {
	logger := log.With().Str("module", "adapters.ws").Str("side", s.side).Logger()
	if readLimit > 0 {
		s.conn.SetReadLimit(readLimit)
	}
	if pingPeriod > 0 {
		pongWait := pingPeriod * 10 / 9
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		s.conn.SetPongHandler(func(string) error {
			return s.conn.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := s.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Warn().Err(err).Msg("readPump read error")
				} else {
					logger.Debug().Err(err).Msg("readPump closed")
				}
				return
			}
			if err := handle(ctx, data); err != nil {
				logger.Error().Err(err).Msg("frame not handled")
			}
		}
	}
}
