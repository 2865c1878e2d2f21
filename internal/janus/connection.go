package janus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/roombridge/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ConnectionOptions struct {
	// SessionData is the client payload handed to sessions created on this connection.
	SessionData string
	// Plugins maps gateway plugin names to handle factories. Unknown
	// plugins get a pass-through handle.
	Plugins map[string]PluginFactory
	// TransactionTTL evicts pending transactions nobody resolved. Zero disables it.
	TransactionTTL time.Duration
	// RequestTimeout bounds the wait for create/attach/detach/destroy replies.
	RequestTimeout time.Duration
}

// Connection bridges one client socket to one gateway socket. It owns the
// transaction registry for everything sent upstream on behalf of the client.
type Connection struct {
	id           string
	gateway      core.FrameSender
	client       core.FrameSender
	transactions *Transactions
	opts         ConnectionOptions
	logger       zerolog.Logger

	mu      sync.RWMutex
	session *Session
	closed  bool

	inflight sync.WaitGroup
}

func NewConnection(id string, gateway, client core.FrameSender, opts ConnectionOptions) *Connection {
	return &Connection{
		id:           id,
		gateway:      gateway,
		client:       client,
		transactions: NewTransactions(opts.TransactionTTL),
		opts:         opts,
		logger:       log.With().Str("module", "janus.connection").Str("connection", id).Logger(),
	}
}

func (c *Connection) ID() string                  { return c.id }
func (c *Connection) Transactions() *Transactions { return c.transactions }

func (c *Connection) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Connection) SetSession(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// Request registers msg's transaction and sends msg to the gateway. The
// transaction is registered first so a fast reply is never missed.
func (c *Connection) Request(ctx context.Context, msg Message) (*Pending, error) {
	pending, err := c.register(msg.Transaction)
	if err != nil {
		return nil, err
	}
	if err := c.forward(ctx, msg); err != nil {
		c.transactions.Reject(msg.Transaction, err)
		return nil, err
	}
	return pending, nil
}

// HandleClientMessage routes one frame read from the client socket.
func (c *Connection) HandleClientMessage(ctx context.Context, raw []byte) error {
	msg, err := ParseMessage(raw)
	if err != nil {
		return err
	}
	switch msg.Janus {
	case VerbCreate:
		return c.track(ctx, msg, c.onCreated)
	case VerbAttach:
		return c.track(ctx, msg, func(resp Response) { c.onAttached(msg, resp) })
	case VerbDetach:
		return c.track(ctx, msg, func(Response) { c.dropPlugin(ctx, msg.HandleID.String()) })
	case VerbDestroy:
		return c.track(ctx, msg, func(Response) { c.dropSession(ctx) })
	case VerbMessage:
		if p, ok := c.plugin(msg.HandleID.String()); ok {
			return c.dispatch(ctx, p, msg)
		}
	}
	return c.forward(ctx, msg)
}

// HandleGatewayMessage resolves the transaction a gateway frame answers and
// relays the frame to the client.
func (c *Connection) HandleGatewayMessage(ctx context.Context, raw []byte) error {
	resp, err := ParseResponse(raw)
	if err != nil {
		return err
	}
	// an ack only confirms receipt; the event carrying the result follows
	// under the same transaction.
	if resp.Transaction != "" && resp.Janus != VerbAck {
		c.transactions.Execute(resp.Transaction, resp)
	}
	if resp.Janus == VerbDetached {
		c.dropPlugin(ctx, resp.Sender.String())
	}
	if err := c.client.Send(ctx, core.Frame(raw)); err != nil {
		return fmt.Errorf("relay to client: %w", err)
	}
	return nil
}

// Close fails pending transactions, waits for running plugin handlers and
// closes every handle.
func (c *Connection) Close(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.transactions.RejectAll(ErrConnectionClosed)
	c.inflight.Wait()
	c.dropSession(ctx)
	c.transactions.Close()
	c.logger.Info().Msg("connection closed")
}

// dispatch starts msg on the calling goroutine, so frames reach the gateway
// in client order, and completes it in the background.
func (c *Connection) dispatch(ctx context.Context, p Plugin, msg Message) error {
	complete, err := p.StartMessage(ctx, msg)
	if errors.Is(err, ErrUnsupportedRequest) {
		return c.forward(ctx, msg)
	}
	if err != nil {
		return fmt.Errorf("handle %s %s: %w", p.ID(), msg.Request(), err)
	}
	if complete == nil {
		return nil
	}
	ok := c.spawn(func() {
		if err := complete(ctx); err != nil {
			c.logger.Error().Err(err).Str("handle", p.ID()).Str("request", msg.Request()).Msg("plugin message failed")
		}
	})
	if !ok {
		return ErrConnectionClosed
	}
	return nil
}

// track sends a gateway-level request and runs onSuccess when the gateway
// confirms it.
func (c *Connection) track(ctx context.Context, msg Message, onSuccess func(Response)) error {
	pending, err := c.Request(ctx, msg)
	if err != nil {
		return err
	}
	ok := c.spawn(func() {
		waitCtx := ctx
		if c.opts.RequestTimeout > 0 {
			var cancel context.CancelFunc
			waitCtx, cancel = context.WithTimeout(ctx, c.opts.RequestTimeout)
			defer cancel()
		}
		resp, err := pending.Wait(waitCtx)
		if err != nil {
			c.logger.Warn().Err(err).Str("transaction", msg.Transaction).Str("janus", msg.Janus).Msg("request not confirmed")
			return
		}
		if resp.Janus != VerbSuccess {
			c.logger.Warn().Str("transaction", msg.Transaction).Str("janus", msg.Janus).Str("reply", resp.Janus).Msg("request refused by gateway")
			return
		}
		onSuccess(resp)
	})
	if !ok {
		return ErrConnectionClosed
	}
	return nil
}

// register adds a pending transaction unless the connection is closed.
// Holding the lock orders it against Close, whose RejectAll then sees it.
func (c *Connection) register(id string) (*Pending, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrConnectionClosed
	}
	return c.transactions.Register(id)
}

// spawn runs fn on a goroutine Close waits for. It refuses once the
// connection is closed; the check and the WaitGroup increment share the lock
// Close takes before waiting.
func (c *Connection) spawn(fn func()) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		fn()
	}()
	return true
}

func (c *Connection) onCreated(resp Response) {
	if resp.Data == nil || resp.Data.ID == "" {
		c.logger.Warn().Msg("create reply without session id")
		return
	}
	s := NewSession(c, resp.Data.ID.String(), c.opts.SessionData)
	c.SetSession(s)
	c.logger.Info().Str("session", s.ID()).Msg("session created")
}

func (c *Connection) onAttached(msg Message, resp Response) {
	s := c.Session()
	if s == nil || resp.Data == nil || resp.Data.ID == "" {
		c.logger.Warn().Str("plugin", msg.Plugin).Msg("attach reply without session or handle id")
		return
	}
	factory, ok := c.opts.Plugins[msg.Plugin]
	if !ok {
		factory = PassthroughFactory(msg.Plugin)
	}
	p := factory(resp.Data.ID.String(), s)
	s.AddPlugin(p)
	c.logger.Info().Str("session", s.ID()).Str("handle", p.ID()).Str("plugin", p.Type()).Msg("plugin attached")
}

func (c *Connection) dropPlugin(ctx context.Context, handleID string) {
	s := c.Session()
	if s == nil {
		return
	}
	if p, ok := s.RemovePlugin(handleID); ok {
		p.Close(ctx)
		c.logger.Info().Str("session", s.ID()).Str("handle", handleID).Msg("plugin detached")
	}
}

func (c *Connection) dropSession(ctx context.Context) {
	s := c.Session()
	if s == nil {
		return
	}
	for _, p := range s.Plugins() {
		s.RemovePlugin(p.ID())
		p.Close(ctx)
	}
	c.SetSession(nil)
	c.logger.Info().Str("session", s.ID()).Msg("session dropped")
}

func (c *Connection) plugin(handleID string) (Plugin, bool) {
	s := c.Session()
	if s == nil || handleID == "" {
		return nil, false
	}
	return s.Plugin(handleID)
}

func (c *Connection) forward(ctx context.Context, msg Message) error {
	frame, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Janus, err)
	}
	if err := c.gateway.Send(ctx, frame); err != nil {
		return fmt.Errorf("send %s upstream: %w", msg.Janus, err)
	}
	return nil
}
