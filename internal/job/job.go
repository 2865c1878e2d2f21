// Package job runs deferred post-processing triggered by gateway events.
// A job is built from an event payload, run once and discarded. Failures are
// reported to the caller and never retried here.
package job

//go:generate mockgen -source=job.go -destination=mocks/mock_job.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/spf13/afero"
)

var ErrMissingField = errors.New("missing job data field")

// Job is one deferred unit of work.
type Job interface {
	ID() string
	Name() string
	Context() *Context
	Run(ctx context.Context) error
}

// Factory builds a job from an event payload. It fails when the payload
// misses a field the job requires.
type Factory func(id string, data Data) (Job, error)

// ScriptRunner executes an external command given as argv.
type ScriptRunner interface {
	Run(ctx context.Context, argv []string) error
}

// ArchiveImporter ingests a finished recording into the conferencing backend.
type ArchiveImporter interface {
	ImportMediaStreamArchive(ctx context.Context, channelID, file string, jc *Context) error
}

// Data is the immutable payload a job was triggered with.
type Data map[string]any

func ParseData(raw json.RawMessage) (Data, error) {
	var d Data
	if len(raw) == 0 {
		return Data{}, nil
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode job data: %w", err)
	}
	return d, nil
}

// String returns a non-empty string field.
func (d Data) String(key string) (string, error) {
	v, ok := d[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s must be a non-empty string", ErrMissingField, key)
	}
	return s, nil
}

// Base carries what every job variant has in common.
type Base struct {
	id   string
	name string
	data Data
	ctx  *Context
}

func NewBase(id, name string, data Data) Base {
	return Base{
		id:   id,
		name: name,
		data: maps.Clone(data),
		ctx:  NewContext(map[string]any{"jobId": id, "jobName": name}),
	}
}

func (b *Base) ID() string        { return b.id }
func (b *Base) Name() string      { return b.name }
func (b *Base) Data() Data        { return maps.Clone(b.data) }
func (b *Base) Context() *Context { return b.ctx }

// Workspace allocates and removes job files on fs.
type Workspace struct {
	Fs      afero.Fs
	TempDir string
}

// Allocate creates an empty, uniquely named file with extension ext and
// returns its path.
func (w Workspace) Allocate(prefix, ext string) (string, error) {
	f, err := afero.TempFile(w.Fs, w.TempDir, prefix+"-*."+ext)
	if err != nil {
		return "", fmt.Errorf("allocate %s file: %w", ext, err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("allocate %s file: %w", ext, err)
	}
	return name, nil
}

func (w Workspace) Remove(path string) error {
	return w.Fs.Remove(path)
}
