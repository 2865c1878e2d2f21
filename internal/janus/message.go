package janus

import (
	"encoding/json"
	"fmt"
)

// Gateway verbs the bridge interprets. Everything else is proxied untouched.
const (
	VerbCreate   = "create"
	VerbAttach   = "attach"
	VerbMessage  = "message"
	VerbDetach   = "detach"
	VerbDestroy  = "destroy"
	VerbSuccess  = "success"
	VerbEvent    = "event"
	VerbError    = "error"
	VerbAck      = "ack"
	VerbDetached = "detached"
)

// Message is a client frame addressed to the gateway.
type Message struct {
	Janus       string       `json:"janus"`
	Body        *MessageBody `json:"body,omitempty"`
	Plugin      string       `json:"plugin,omitempty"`
	Transaction string       `json:"transaction"`
	SessionID   json.Number  `json:"session_id,omitempty"`
	HandleID    json.Number  `json:"handle_id,omitempty"`

	// Raw is the frame as received; it is what gets forwarded upstream.
	Raw json.RawMessage `json:"-"`
}

type MessageBody struct {
	Request string `json:"request"`
	ID      string `json:"id,omitempty"`
}

// ParseMessage decodes a client frame, keeping the original bytes.
func ParseMessage(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if m.Janus == "" {
		return Message{}, fmt.Errorf("%w: missing janus verb", ErrInvalidMessage)
	}
	m.Raw = append(json.RawMessage(nil), raw...)
	return m, nil
}

// Request is the plugin request name, empty when the frame has no body.
func (m Message) Request() string {
	if m.Body == nil {
		return ""
	}
	return m.Body.Request
}

// Encode returns the bytes to send upstream.
func (m Message) Encode() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	return json.Marshal(m)
}

// Response is a gateway frame, either a synchronous reply or an async event.
type Response struct {
	Janus       string      `json:"janus"`
	Transaction string      `json:"transaction,omitempty"`
	SessionID   json.Number `json:"session_id,omitempty"`
	Sender      json.Number `json:"sender,omitempty"`
	PluginData  *PluginData `json:"plugindata,omitempty"`
	Data        *IDData     `json:"data,omitempty"`
	Error       *GatewayErr `json:"error,omitempty"`

	Raw json.RawMessage `json:"-"`
}

type PluginData struct {
	Plugin string         `json:"plugin,omitempty"`
	Data   map[string]any `json:"data"`
}

// IDData carries the id returned by create and attach.
type IDData struct {
	ID json.Number `json:"id"`
}

type GatewayErr struct {
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

func ParseResponse(raw []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(raw, &r); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	r.Raw = append(json.RawMessage(nil), raw...)
	return r, nil
}

// PluginDataValue returns a top-level key of plugindata.data.
func (r Response) PluginDataValue(key string) (any, bool) {
	if r.PluginData == nil || r.PluginData.Data == nil {
		return nil, false
	}
	v, ok := r.PluginData.Data[key]
	return v, ok
}

// PluginError reports a protocol-level failure: an "error" key inside
// plugindata.data, or a gateway error reply. Nil means no failure was reported.
func (r Response) PluginError() *PluginError {
	if r.Error != nil {
		return &PluginError{Reason: r.Error.Reason, Code: r.Error.Code}
	}
	v, ok := r.PluginDataValue("error")
	if !ok {
		return nil
	}
	perr := &PluginError{Reason: fmt.Sprint(v)}
	if code, ok := r.PluginDataValue("error_code"); ok {
		if f, ok := code.(float64); ok {
			perr.Code = int(f)
		}
	}
	return perr
}

// PluginError is a failure reported by the gateway inside a response.
type PluginError struct {
	Reason string
	Code   int
}

func (e *PluginError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("gateway error %d: %s", e.Code, e.Reason)
	}
	return "gateway error: " + e.Reason
}
