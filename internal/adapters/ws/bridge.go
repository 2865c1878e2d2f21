package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/roombridge/internal/janus"
)

// SessionDataParam is the query parameter carrying the client's session data.
const SessionDataParam = "sessionData"

type Options struct {
	GatewayURL  string
	Subprotocol string
	ReadLimit   int64
	PingPeriod  time.Duration
	// Connection is the template for every bridged connection; SessionData
	// is filled in per client.
	Connection janus.ConnectionOptions
	// CloseTimeout bounds stream teardown after a client leaves.
	CloseTimeout time.Duration
}

// Bridge pairs every client socket with a fresh gateway socket and routes
// frames between them through a janus.Connection.
type Bridge struct {
	opts     Options
	upgrader websocket.Upgrader
	dialer   *websocket.Dialer
	active   sync.WaitGroup
}

func NewBridge(opts Options) *Bridge {
	if opts.CloseTimeout <= 0 {
		opts.CloseTimeout = 10 * time.Second
	}
	var protocols []string
	if opts.Subprotocol != "" {
		protocols = []string{opts.Subprotocol}
	}
	return &Bridge{
		opts: opts,
		upgrader: websocket.Upgrader{
			Subprotocols: protocols,
			CheckOrigin:  func(r *http.Request) bool { return true },
		},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
			Subprotocols:     protocols,
		},
	}
}

func (b *Bridge) HandleJanus(ctx context.Context, c *gin.Context) {
	b.Serve(ctx, c.Writer, c.Request)
}

// Serve upgrades the request and bridges it until either side hangs up or
// ctx is done.
func (b *Bridge) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	logger := log.With().Str("module", "adapters.ws").Str("connection", id).Logger()

	upstream, _, err := b.dialer.DialContext(r.Context(), b.opts.GatewayURL, nil)
	if err != nil {
		logger.Error().Err(err).Str("gateway", b.opts.GatewayURL).Msg("gateway dial failed")
		http.Error(w, "gateway unavailable", http.StatusBadGateway)
		return
	}
	downstream, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error().Err(err).Msg("ws upgrade")
		_ = upstream.Close()
		return
	}
	logger.Info().Str("remote", r.RemoteAddr).Msg("client connected")

	client := newSocket("client", downstream, 64)
	gateway := newSocket("gateway", upstream, 64)
	opts := b.opts.Connection
	opts.SessionData = r.URL.Query().Get(SessionDataParam)
	conn := janus.NewConnection(id, gateway, client, opts)

	b.active.Add(1)
	go func() {
		defer b.active.Done()
		b.run(ctx, conn, client, gateway)
		logger.Info().Msg("client disconnected")
	}()
}

func (b *Bridge) run(parent context.Context, conn *janus.Connection, client, gateway *socket) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var wg conc.WaitGroup
	wg.Go(func() { client.writePump(ctx, b.opts.PingPeriod) })
	wg.Go(func() { gateway.writePump(ctx, b.opts.PingPeriod) })
	wg.Go(func() {
		defer cancel()
		client.readPump(ctx, b.opts.ReadLimit, b.opts.PingPeriod, conn.HandleClientMessage)
	})
	wg.Go(func() {
		defer cancel()
		gateway.readPump(ctx, b.opts.ReadLimit, b.opts.PingPeriod, conn.HandleGatewayMessage)
	})

	<-ctx.Done()
	closeCtx, closeCancel := context.WithTimeout(context.Background(), b.opts.CloseTimeout)
	defer closeCancel()
	conn.Close(closeCtx)
	client.Close()
	gateway.Close()
	wg.Wait()
}

// Wait blocks until every bridged connection has been torn down.
func (b *Bridge) Wait() {
	b.active.Wait()
}
