// Package cliparams implements the command-line parameter store of spec.md
// §6: a concurrent-safe global parameter store populated by the (out-of-
// scope) front-end and exposed to the `parameter` system object.
package cliparams

import (
	"strings"
	"sync"

	"github.com/arolang/aro/value"
)

// Store holds parsed command-line parameters, keyed by long flag name
// (without leading dashes).
type Store struct {
	mu     sync.RWMutex
	values map[string]value.Value
}

// New constructs an empty Store.
func New() *Store {
	return &Store{values: make(map[string]value.Value)}
}

// Parse populates the store from argv per spec §6: `--name value`,
// `--name=value`, `--flag` (boolean true), short `-abc` splitting into
// three boolean flags, positional arguments skipped.
func (s *Store) Parse(argv []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case strings.HasPrefix(arg, "--"):
			name := strings.TrimPrefix(arg, "--")
			if eq := strings.IndexByte(name, '='); eq >= 0 {
				s.values[name[:eq]] = value.CoerceCLIScalar(name[eq+1:])
				continue
			}
			if i+1 < len(argv) && !strings.HasPrefix(argv[i+1], "-") {
				s.values[name] = value.CoerceCLIScalar(argv[i+1])
				i++
			} else {
				s.values[name] = value.Bool(true)
			}
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			for _, ch := range arg[1:] {
				s.values[string(ch)] = value.Bool(true)
			}
		default:
			// positional argument, skipped
		}
	}
}

// Get returns the parsed value for name, or Null if absent.
func (s *Store) Get(name string) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// All returns a snapshot copy of every parsed parameter, used by the
// `parameter` system object's null-property ("read the whole map") path.
func (s *Store) All() map[string]value.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]value.Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
