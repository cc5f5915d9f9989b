package domain

import (
	"context"
	"errors"
)

type Alias struct {
	Name string `yaml:"name"`
	Data string `yaml:"data"`
}

var (
	ErrAliasExists   = errors.New("alias already exists")
	ErrAliasNotFound = errors.New("alias not found")
	// ErrAliasStore cubre fallos de escritura (constraint, rollback); distinto de "no existe".
	ErrAliasStore = errors.New("alias store failure")
)

type AliasRepository interface {
	Add(ctx context.Context, name, data string) error
	Get(ctx context.Context, name string) (*Alias, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context, pattern string) ([]string, error)
	Random(ctx context.Context, pattern string) (string, bool, error)
	All(ctx context.Context) ([]Alias, error)
}
