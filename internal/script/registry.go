package script

import (
	"context"
	"fmt"
	"sync"
)

// CommandGroup resuelve nombres de comando. Las implementaciones estáticas
// tienen un mapa fijo; las dinámicas consultan su fuente en cada llamada.
type CommandGroup interface {
	LookupCommand(ctx context.Context, name string) (*CommandBinding, error)
	ListCommands(ctx context.Context) ([]string, error)
}

type registeredGroup struct {
	label string
	group CommandGroup
}

// Registry es la tabla global de grupos. El orden de registro es el orden de
// precedencia: el primer grupo que responde gana.
type Registry struct {
	mu     sync.RWMutex
	groups []registeredGroup
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) NewCommandGroup(label string) (*StaticGroup, error) {
	g := NewStaticGroup(label)
	if err := r.AddCommandGroup(label, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *Registry) AddCommandGroup(label string, group CommandGroup) error {
	if label == "" {
		return fmt.Errorf("script: empty group label")
	}
	if group == nil {
		return fmt.Errorf("script: nil group %q", label)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, g := range r.groups {
		if g.label == label {
			return fmt.Errorf("script: group %q already registered", label)
		}
	}
	r.groups = append(r.groups, registeredGroup{label: label, group: group})
	return nil
}

func (r *Registry) LookupCommand(ctx context.Context, name string) (*CommandBinding, error) {
	for _, g := range r.snapshot() {
		b, err := g.group.LookupCommand(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("script: lookup %q in %s: %w", name, g.label, err)
		}
		if b != nil {
			return b, nil
		}
	}
	return nil, nil
}

func (r *Registry) ListCommands(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, g := range r.snapshot() {
		names, err := g.group.ListCommands(ctx)
		if err != nil {
			return nil, fmt.Errorf("script: list %s: %w", g.label, err)
		}
		for _, name := range names {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out, nil
}

func (r *Registry) Groups() []string {
	groups := r.snapshot()
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.label)
	}
	return out
}

func (r *Registry) Group(label string) (CommandGroup, bool) {
	for _, g := range r.snapshot() {
		if g.label == label {
			return g.group, true
		}
	}
	return nil, false
}

func (r *Registry) snapshot() []registeredGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]registeredGroup(nil), r.groups...)
}

// StaticGroup guarda bindings fijos, poblados al cargar el plugin.
type StaticGroup struct {
	name     string
	mu       sync.RWMutex
	bindings map[string]*CommandBinding
	order    []string
}

func NewStaticGroup(name string) *StaticGroup {
	return &StaticGroup{
		name:     name,
		bindings: make(map[string]*CommandBinding),
	}
}

func (g *StaticGroup) Name() string {
	return g.name
}

func (g *StaticGroup) Add(b *CommandBinding) error {
	if b == nil || b.Name == "" {
		return fmt.Errorf("script: invalid binding in group %s", g.name)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.bindings[b.Name]; ok {
		return fmt.Errorf("script: command %q already registered in %s", b.Name, g.name)
	}
	g.bindings[b.Name] = b
	g.order = append(g.order, b.Name)
	return nil
}

func (g *StaticGroup) RegisterCommand(name string, h Handler, opts ...Option) error {
	return g.Add(NewBinding(name, h, opts...))
}

func (g *StaticGroup) RegisterContextual(name string, h ContextualHandler, opts ...Option) error {
	return g.Add(NewContextualBinding(name, h, opts...))
}

func (g *StaticGroup) LookupCommand(_ context.Context, name string) (*CommandBinding, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bindings[name], nil
}

func (g *StaticGroup) ListCommands(context.Context) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.order...), nil
}
