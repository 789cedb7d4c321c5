package interp

import (
	"fmt"
	"sort"

	"github.com/timewinder-dev/kclvm/vm"
)

// Scope is a name to value table. Stores overwrite; loads of missing names
// fail rather than defaulting.
type Scope struct {
	Variables map[string]vm.Value
}

func NewScope() *Scope {
	return &Scope{Variables: make(map[string]vm.Value)}
}

func (s *Scope) Store(name string, v vm.Value) {
	if s.Variables == nil {
		s.Variables = make(map[string]vm.Value)
	}
	s.Variables[name] = v
}

func (s *Scope) Load(name string) (vm.Value, error) {
	v, ok := s.Variables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnboundName, name)
	}
	return v, nil
}

func (s *Scope) Has(name string) bool {
	_, ok := s.Variables[name]
	return ok
}

func (s *Scope) Len() int {
	return len(s.Variables)
}

// Names returns the bound names in sorted order.
func (s *Scope) Names() []string {
	keys := make([]string, 0, len(s.Variables))
	for k := range s.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
