package selector

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/selectorconfig"
)

// Constructor builds a selector from its parameter bag
type Constructor func(params map[string]interface{}) (contracts.Selector, error)

// Entry is a registered selector type
type Entry struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Defaults    interface{} `json:"defaults,omitempty"`
	New         Constructor `json:"-"`
}

// Instance is a constructed selector, valid for one run
type Instance struct {
	Alias    string
	Type     string
	Selector contracts.Selector
}

// Registry maps selector type names to constructors
// ⭐ SSOT: 선택기 타입 → 생성자 매핑 (프로세스 시작 시 등록)
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// NewDefaultRegistry creates a registry holding the built-in selectors
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, e := range builtins() {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a selector type
func (r *Registry) Register(e Entry) error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrMissingType
	}
	if e.New == nil {
		return fmt.Errorf("register %q: nil constructor", e.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[e.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, e.Name)
	}
	r.entries[e.Name] = e
	return nil
}

// Resolve returns the constructor registered under name
func (r *Registry) Resolve(name string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.New, true
}

// Entries returns every registered type, sorted by name
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Build resolves and constructs the selector of a spec.
// Failures are *SpecError (missing type) or *LoadError (unknown type, constructor error).
func (r *Registry) Build(spec selectorconfig.Spec) (*Instance, error) {
	if strings.TrimSpace(spec.Type) == "" {
		return nil, &SpecError{Index: spec.Index, Field: "type", Err: ErrMissingType}
	}

	ctor, ok := r.Resolve(spec.Type)
	if !ok {
		return nil, &LoadError{Type: spec.Type, Cause: ErrUnknownType}
	}

	sel, err := ctor(spec.Parameters)
	if err != nil {
		return nil, &LoadError{Type: spec.Type, Cause: err}
	}

	alias := spec.Alias
	if alias == "" {
		alias = spec.Type
	}

	return &Instance{
		Alias:    alias,
		Type:     spec.Type,
		Selector: sel,
	}, nil
}
