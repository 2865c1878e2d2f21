package janus

import (
	"sort"
	"sync"
)

// Session is a gateway session and the plugin handles attached to it.
type Session struct {
	id   string
	data string
	conn *Connection

	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewSession creates a session on conn. data is the opaque client session
// payload passed on to the channel API.
func NewSession(conn *Connection, id, data string) *Session {
	return &Session{
		id:      id,
		data:    data,
		conn:    conn,
		plugins: make(map[string]Plugin),
	}
}

func (s *Session) ID() string              { return s.id }
func (s *Session) Data() string            { return s.data }
func (s *Session) Connection() *Connection { return s.conn }

func (s *Session) AddPlugin(p Plugin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plugins[p.ID()] = p
}

func (s *Session) Plugin(id string) (Plugin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plugins[id]
	return p, ok
}

func (s *Session) RemovePlugin(id string) (Plugin, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plugins[id]
	if ok {
		delete(s.plugins, id)
	}
	return p, ok
}

// Plugins returns the attached handles ordered by id.
func (s *Session) Plugins() []Plugin {
	s.mu.RLock()
	out := make([]Plugin, 0, len(s.plugins))
	for _, p := range s.plugins {
		out = append(out, p)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
