package script

import (
	"context"
	"strings"
)

// Handler recibe sólo los argumentos posicionales.
type Handler func(ctx context.Context, args []string) (string, error)

// ContextualHandler recibe además el Context completo de la invocación.
type ContextualHandler func(c Context, args []string) (string, error)

// CommandBinding describe un comando ejecutable. No se modifica una vez creado.
type CommandBinding struct {
	Name        string
	DisplayName string
	Contextual  bool
	// Varargs junta los argumentos sobrantes, separados por espacio, en el último parámetro.
	Varargs bool
	Params  []string
	// Optional es cuántos de los últimos Params pueden faltar.
	Optional int
	// Source es el script de origen; vacío para comandos nativos.
	Source string

	call ContextualHandler
}

type Option func(*CommandBinding)

func WithParams(names ...string) Option {
	return func(b *CommandBinding) {
		b.Params = append([]string(nil), names...)
	}
}

func WithOptional(n int) Option {
	return func(b *CommandBinding) {
		b.Optional = n
	}
}

func WithVarargs() Option {
	return func(b *CommandBinding) {
		b.Varargs = true
	}
}

func WithDisplayName(name string) Option {
	return func(b *CommandBinding) {
		b.DisplayName = name
	}
}

func WithSource(source string) Option {
	return func(b *CommandBinding) {
		b.Source = source
	}
}

func NewBinding(name string, h Handler, opts ...Option) *CommandBinding {
	b := newBinding(name, func(c Context, args []string) (string, error) {
		return h(c.Ctx(), args)
	}, opts)
	b.Contextual = false
	return b
}

func NewContextualBinding(name string, h ContextualHandler, opts ...Option) *CommandBinding {
	b := newBinding(name, h, opts)
	b.Contextual = true
	return b
}

func newBinding(name string, h ContextualHandler, opts []Option) *CommandBinding {
	b := &CommandBinding{
		Name:        name,
		DisplayName: name,
		call:        h,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.Optional > len(b.Params) {
		b.Optional = len(b.Params)
	}
	if b.Optional < 0 {
		b.Optional = 0
	}
	return b
}

// Call valida la aridad y ejecuta el handler.
func (b *CommandBinding) Call(c Context, args []string) (string, error) {
	bound, err := b.bind(args)
	if err != nil {
		return "", err
	}
	return b.call(c, bound)
}

func (b *CommandBinding) bind(args []string) ([]string, error) {
	required := len(b.Params) - b.Optional
	if len(args) < required {
		return nil, &ApplyError{Command: b}
	}
	if len(args) <= len(b.Params) {
		return args, nil
	}
	if !b.Varargs {
		return nil, &ApplyError{Command: b}
	}
	if len(b.Params) == 0 {
		return args, nil
	}
	last := len(b.Params) - 1
	bound := make([]string, 0, len(b.Params))
	bound = append(bound, args[:last]...)
	bound = append(bound, strings.Join(args[last:], " "))
	return bound, nil
}

// Usage describe la firma del comando, p. ej. "add-alias name data...".
func Usage(b *CommandBinding) string {
	if b == nil {
		return ""
	}
	parts := []string{b.DisplayName}
	required := len(b.Params) - b.Optional
	for i, p := range b.Params {
		if b.Varargs && i == len(b.Params)-1 {
			p += "..."
		}
		if i >= required {
			p = "[" + p + "]"
		}
		parts = append(parts, p)
	}
	if b.Varargs && len(b.Params) == 0 {
		parts = append(parts, "...")
	}
	return strings.Join(parts, " ")
}
