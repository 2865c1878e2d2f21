package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/roombridge/internal/janus"
)

const subprotocol = "janus-protocol"

type fakeGateway struct {
	srv       *httptest.Server
	received  chan []byte
	protocols chan []string
	closed    chan struct{}
}

// newFakeGateway answers create requests with a session id and records
// every other frame.
func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	g := &fakeGateway{
		received:  make(chan []byte, 16),
		protocols: make(chan []string, 1),
		closed:    make(chan struct{}),
	}
	upgrader := websocket.Upgrader{Subprotocols: []string{subprotocol}}
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.protocols <- websocket.Subprotocols(r)
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer close(g.closed)
		defer c.Close()
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			g.received <- data
			var msg struct {
				Janus       string `json:"janus"`
				Transaction string `json:"transaction"`
			}
			if json.Unmarshal(data, &msg) == nil && msg.Janus == janus.VerbCreate {
				reply := fmt.Sprintf(`{"janus":"success","transaction":%q,"data":{"id":4242}}`, msg.Transaction)
				if err := c.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(g.srv.Close)
	return g
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func newBridgeServer(t *testing.T, ctx context.Context, gatewayURL string) (*Bridge, *httptest.Server) {
	t.Helper()
	b := NewBridge(Options{
		GatewayURL:  gatewayURL,
		Subprotocol: subprotocol,
		ReadLimit:   1 << 16,
		Connection:  janus.ConnectionOptions{RequestTimeout: time.Second},
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.Serve(ctx, w, r)
	}))
	t.Cleanup(srv.Close)
	return b, srv
}

func dialClient(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	d := websocket.Dialer{Subprotocols: []string{subprotocol}}
	c, _, err := d.Dial(wsURL(srv)+query, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBridgeRelaysBothWays(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gw := newFakeGateway(t)
	_, srv := newBridgeServer(t, ctx, wsURL(gw.srv))

	client := dialClient(t, srv, "?sessionData=abc")
	assert.Equal(t, subprotocol, client.Subprotocol())
	assert.Equal(t, []string{subprotocol}, <-gw.protocols)

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"janus":"create","transaction":"t1"}`)))

	select {
	case got := <-gw.received:
		assert.JSONEq(t, `{"janus":"create","transaction":"t1"}`, string(got))
	case <-time.After(2 * time.Second):
		t.Fatal("gateway did not receive create")
	}

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, reply, err := client.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"janus":"success","transaction":"t1","data":{"id":4242}}`, string(reply))
}

func TestBridgeGatewayUnavailable(t *testing.T) {
	gw := newFakeGateway(t)
	url := wsURL(gw.srv)
	gw.srv.Close()
	_, srv := newBridgeServer(t, context.Background(), url)

	d := websocket.Dialer{Subprotocols: []string{subprotocol}}
	_, resp, err := d.Dial(wsURL(srv), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestBridgeClientHangupClosesGateway(t *testing.T) {
	gw := newFakeGateway(t)
	b, srv := newBridgeServer(t, context.Background(), wsURL(gw.srv))

	client := dialClient(t, srv, "")
	<-gw.protocols
	require.NoError(t, client.Close())

	select {
	case <-gw.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("gateway socket left open")
	}
	b.Wait()
}

func TestBridgeShutdownClosesConnections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gw := newFakeGateway(t)
	b, srv := newBridgeServer(t, ctx, wsURL(gw.srv))

	client := dialClient(t, srv, "")
	<-gw.protocols
	cancel()
	b.Wait()

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := client.ReadMessage()
	require.Error(t, err)
}

func TestSocketSendAfterClose(t *testing.T) {
	gw := newFakeGateway(t)
	c, _, err := websocket.DefaultDialer.Dial(wsURL(gw.srv), nil)
	require.NoError(t, err)

	s := newSocket("gateway", c, 1)
	s.Close()
	s.Close()
	require.ErrorIs(t, s.Send(context.Background(), []byte("{}")), ErrSocketClosed)
}

func TestSocketSendHonoursContext(t *testing.T) {
	gw := newFakeGateway(t)
	c, _, err := websocket.DefaultDialer.Dial(wsURL(gw.srv), nil)
	require.NoError(t, err)
	s := newSocket("gateway", c, 1)
	defer s.Close()

	require.NoError(t, s.Send(context.Background(), []byte("{}")))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Send(ctx, []byte("{}")), context.DeadlineExceeded)
}
