package janus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/roombridge/internal/core"
	"github.com/dkeye/roombridge/internal/domain"
	"github.com/dkeye/roombridge/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const AudioroomPluginName = "janus.plugin.cm.audioroom"

const (
	RequestJoin       = "join"
	RequestChangeroom = "changeroom"
)

// plugindata.data["audioroom"] markers of a successful exchange.
const (
	markerJoined      = "joined"
	markerRoomChanged = "roomchanged"
)

type AudioDeps struct {
	Streams  core.StreamRegistry
	Channels core.ChannelAPI
	// Timeout bounds each wait for a correlated gateway response. Zero waits
	// as long as the caller's context allows.
	Timeout time.Duration
	Now     func() time.Time
}

// AudioPlugin is the audioroom plugin handle. It holds at most one stream,
// the room the client is in, and keeps the channel subscription and the
// shared stream registry in step with room changes.
type AudioPlugin struct {
	*Handle
	deps AudioDeps

	mu     sync.RWMutex
	stream *domain.Stream

	requests map[string]requestHandler
}

// requestHandler sends a request upstream and returns how to finish it.
type requestHandler func(ctx context.Context, msg Message) (Completion, error)

var _ Plugin = (*AudioPlugin)(nil)

func NewAudioPlugin(id, typ string, s *Session, deps AudioDeps) *AudioPlugin {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	p := &AudioPlugin{Handle: NewHandle(id, typ, s), deps: deps}
	p.requests = map[string]requestHandler{
		RequestJoin:       p.onJoin,
		RequestChangeroom: p.onChangeroom,
	}
	return p
}

// AudioPluginFactory builds audioroom handles sharing deps.
func AudioPluginFactory(deps AudioDeps) PluginFactory {
	return func(id string, s *Session) Plugin {
		return NewAudioPlugin(id, AudioroomPluginName, s, deps)
	}
}

// Stream is the room the handle is in, nil before the first join.
func (p *AudioPlugin) Stream() *domain.Stream {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stream
}

func (p *AudioPlugin) setStream(s *domain.Stream) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stream = s
}

// StartMessage accepts only "message" frames carrying a join or changeroom
// request. Anything else fails before any upstream call.
func (p *AudioPlugin) StartMessage(ctx context.Context, msg Message) (Completion, error) {
	if msg.Janus != VerbMessage {
		return nil, fmt.Errorf("%w: janus %q", ErrUnsupportedRequest, msg.Janus)
	}
	handler, ok := p.requests[msg.Request()]
	if !ok {
		return nil, fmt.Errorf("%w: request %q", ErrUnsupportedRequest, msg.Request())
	}
	complete, err := handler(ctx, msg)
	if err != nil {
		metrics.RecordPluginRequest(msg.Request(), "error")
		return nil, err
	}
	return func(ctx context.Context) error {
		err := complete(ctx)
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.RecordPluginRequest(msg.Request(), result)
		return err
	}, nil
}

// ProcessMessage runs msg to completion on the calling goroutine.
func (p *AudioPlugin) ProcessMessage(ctx context.Context, msg Message) error {
	complete, err := p.StartMessage(ctx, msg)
	if err != nil {
		return err
	}
	return complete(ctx)
}

// Close unsubscribes the handle's stream if it is still registered.
func (p *AudioPlugin) Close(ctx context.Context) {
	s := p.Stream()
	if s == nil {
		return
	}
	p.setStream(nil)
	if !p.deps.Streams.Has(s.ID) {
		return
	}
	p.removeStream(ctx, s)
}

// onJoin records the joined room locally. It neither subscribes the channel
// nor touches the stream registry.
func (p *AudioPlugin) onJoin(ctx context.Context, msg Message) (Completion, error) {
	roomID, err := roomOf(msg)
	if err != nil {
		return nil, err
	}
	pending, err := p.Request(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("join %s: %w", roomID, err)
	}
	return func(ctx context.Context) error {
		logger := p.logger(msg)
		resp, err := p.await(ctx, pending)
		if err != nil {
			return fmt.Errorf("join %s: %w", roomID, err)
		}
		if perr := resp.PluginError(); perr != nil {
			logger.Warn().Err(perr).Str("room", roomID).Msg("join refused")
			return nil
		}
		if v, _ := resp.PluginDataValue("audioroom"); v != markerJoined {
			logger.Warn().Interface("audioroom", v).Str("room", roomID).Msg("join reply without joined marker")
			return nil
		}
		p.setStream(domain.NewStream(roomID, roomID, p.ID()))
		logger.Info().Str("room", roomID).Msg("joined")
		return nil
	}, nil
}

// onChangeroom moves the handle to another room. Once the gateway answers,
// the previous stream is always torn down and replaced by a stream for the
// requested room. Only a confirmed change subscribes the new stream and
// registers it, so a refused change leaves the handle in a room it is not
// subscribed to.
func (p *AudioPlugin) onChangeroom(ctx context.Context, msg Message) (Completion, error) {
	roomID, err := roomOf(msg)
	if err != nil {
		return nil, err
	}
	previous := p.Stream()
	pending, err := p.Request(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("changeroom %s: %w", roomID, err)
	}
	return func(ctx context.Context) error {
		resp, err := p.await(ctx, pending)
		if err != nil {
			return fmt.Errorf("changeroom %s: %w", roomID, err)
		}
		return p.applyChangeroom(ctx, p.logger(msg), roomID, previous, resp)
	}, nil
}

// applyChangeroom replaces previous with a stream for roomID and subscribes
// it when resp confirms the change.
func (p *AudioPlugin) applyChangeroom(ctx context.Context, logger zerolog.Logger, roomID string, previous *domain.Stream, resp Response) error {
	if previous != nil {
		p.removeStream(ctx, previous)
	}
	next := domain.NewSubscriptionStream(roomID, p.ID())
	p.setStream(next)

	if perr := resp.PluginError(); perr != nil {
		logger.Warn().Err(perr).Str("room", roomID).Msg("changeroom refused, stream left unsubscribed")
		return nil
	}
	if v, _ := resp.PluginDataValue("audioroom"); v != markerRoomChanged {
		logger.Warn().Interface("audioroom", v).Str("room", roomID).Msg("changeroom reply without roomchanged marker, stream left unsubscribed")
		return nil
	}

	start := p.deps.Now().Unix()
	if err := p.deps.Channels.Subscribe(ctx, next.ChannelName, next.ID, start, p.Session().Data()); err != nil {
		return fmt.Errorf("subscribe %s to %s: %w", next.ID, next.ChannelName, err)
	}
	p.deps.Streams.Add(next)
	logger.Info().Str("room", roomID).Str("stream", next.ID).Msg("room changed")
	return nil
}

func (p *AudioPlugin) removeStream(ctx context.Context, s *domain.Stream) {
	if err := p.deps.Channels.RemoveStream(ctx, s.ChannelName, s.ID); err != nil {
		log.Error().Err(err).Str("module", "janus.audio").Str("handle", p.ID()).Str("stream", s.ID).Str("channel", s.ChannelName).Msg("remove stream failed")
	}
	p.deps.Streams.Remove(s)
}

// await waits for the correlated response, bounded by the configured timeout.
func (p *AudioPlugin) await(ctx context.Context, pending *Pending) (Response, error) {
	if p.deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.deps.Timeout)
		defer cancel()
	}
	return pending.Wait(ctx)
}

func (p *AudioPlugin) logger(msg Message) zerolog.Logger {
	return log.With().
		Str("module", "janus.audio").
		Str("session", p.Session().ID()).
		Str("handle", p.ID()).
		Str("transaction", msg.Transaction).
		Logger()
}

func roomOf(msg Message) (string, error) {
	if msg.Body == nil || msg.Body.ID == "" {
		return "", fmt.Errorf("%w: %s without room id", ErrInvalidMessage, msg.Request())
	}
	return msg.Body.ID, nil
}
