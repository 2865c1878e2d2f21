package job

import (
	"maps"
	"slices"

	"github.com/rs/zerolog"
)

// Context is an immutable key/value bag describing a job for logs. Extend
// layers a new snapshot over its parent; no layer is ever modified, so
// concurrent runs never see each other's fields.
type Context struct {
	parent *Context
	fields map[string]any
}

func NewContext(fields map[string]any) *Context {
	return (*Context)(nil).Extend(fields)
}

// Extend returns a child context. Keys in fields shadow the parent's.
func (c *Context) Extend(fields map[string]any) *Context {
	return &Context{parent: c, fields: maps.Clone(fields)}
}

func (c *Context) Get(key string) (any, bool) {
	for l := c; l != nil; l = l.parent {
		if v, ok := l.fields[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Fields flattens the layers, nearest layer winning.
func (c *Context) Fields() map[string]any {
	var layers []*Context
	for l := c; l != nil; l = l.parent {
		layers = append(layers, l)
	}
	out := make(map[string]any)
	for i := len(layers) - 1; i >= 0; i-- {
		maps.Copy(out, layers[i].fields)
	}
	return out
}

func (c *Context) MarshalZerologObject(e *zerolog.Event) {
	fields := c.Fields()
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		e.Interface(k, fields[k])
	}
}
