package script

import (
	"context"
	"maps"
	"time"
)

type Metadata struct {
	Datetime time.Time
	Network  string
	Channel  string
	Nick     string
	Text     string
}

// Context es el entorno de una invocación. Se trata como valor: las variantes
// se construyen copiando, nunca modificando el original.
type Context struct {
	Metadata    Metadata
	Environment map[string]string
	Registry    *Registry

	ctx   context.Context
	depth int
}

func NewContext(ctx context.Context, registry *Registry, md Metadata) Context {
	return Context{
		Metadata:    md,
		Environment: map[string]string{},
		Registry:    registry,
		ctx:         ctx,
	}
}

func (c Context) Ctx() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

func (c Context) Depth() int {
	return c.depth
}

// SubContext comparte metadata y registro pero arranca con el entorno vacío.
func (c Context) SubContext() Context {
	sub := c
	sub.Environment = map[string]string{}
	return sub
}

func (c Context) WithVariable(name, value string) Context {
	next := c
	next.Environment = maps.Clone(c.Environment)
	if next.Environment == nil {
		next.Environment = map[string]string{}
	}
	next.Environment[name] = value
	return next
}

func (c Context) enter() Context {
	next := c
	next.depth++
	return next
}
