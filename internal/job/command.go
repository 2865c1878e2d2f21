package job

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/mattn/go-shellwords"
)

var (
	ErrEmptyCommand       = errors.New("empty command")
	ErrShellOperator      = errors.New("shell operators are not supported")
	ErrUnknownPlaceholder = errors.New("unknown placeholder")
	ErrMissingValue       = errors.New("missing placeholder value")
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9_]*)\}`)

// CommandTemplate is a command line split into argv once, with {name}
// placeholders substituted per argument. Values never pass through a shell,
// so they cannot inject extra arguments or commands.
type CommandTemplate struct {
	raw  string
	args []string
}

// ParseCommandTemplate splits tmpl shell-style and checks every placeholder
// against allowed.
func ParseCommandTemplate(tmpl string, allowed ...string) (*CommandTemplate, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = false
	parser.ParseBacktick = false
	args, err := parser.Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse command %q: %w", tmpl, err)
	}
	if parser.Position >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrShellOperator, tmpl)
	}
	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}
	for _, arg := range args {
		for _, m := range placeholderRe.FindAllStringSubmatch(arg, -1) {
			if !slices.Contains(allowed, m[1]) {
				return nil, fmt.Errorf("%w: {%s} in %q", ErrUnknownPlaceholder, m[1], tmpl)
			}
		}
	}
	return &CommandTemplate{raw: tmpl, args: args}, nil
}

// Render substitutes values into a fresh argv.
func (t *CommandTemplate) Render(values map[string]string) ([]string, error) {
	out := make([]string, len(t.args))
	var missing []string
	for i, arg := range t.args {
		out[i] = placeholderRe.ReplaceAllStringFunc(arg, func(m string) string {
			name := m[1 : len(m)-1]
			v, ok := values[name]
			if !ok {
				missing = append(missing, name)
			}
			return v
		})
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingValue, strings.Join(missing, ", "))
	}
	return out, nil
}

func (t *CommandTemplate) String() string { return t.raw }
