// Package fuse limita cuántos comandos se ejecutan por canal y por día.
package fuse

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

type Result int

const (
	Open Result = iota
	// JustBlown se devuelve una sola vez por clave y día, al superar el límite.
	JustBlown
	Blown
)

func (r Result) String() string {
	switch r {
	case Open:
		return "open"
	case JustBlown:
		return "just_blown"
	case Blown:
		return "blown"
	default:
		return fmt.Sprintf("fuse.Result(%d)", int(r))
	}
}

const DefaultDailyLimit = 1000

// Store cuenta invocaciones por clave. Increment devuelve el valor ya incrementado.
type Store interface {
	Increment(ctx context.Context, key Key) (int64, error)
}

type Key struct {
	Network string
	Channel string
	Day     string
}

// String entrecomilla red y canal para que "a/b","c" y "a","b/c" no
// compartan contador.
func (k Key) String() string {
	return strconv.Quote(k.Network) + "/" + strconv.Quote(k.Channel) + "/" + k.Day
}

func KeyFor(t time.Time, network, channel string) Key {
	return Key{
		Network: network,
		Channel: channel,
		Day:     t.UTC().Format(time.DateOnly),
	}
}

type Fuse struct {
	store Store
	limit int64
}

func New(store Store, limit int) *Fuse {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Fuse{store: store, limit: int64(limit)}
}

func (f *Fuse) Limit() int {
	return int(f.limit)
}

func (f *Fuse) Run(ctx context.Context, t time.Time, network, channel string) (Result, error) {
	count, err := f.store.Increment(ctx, KeyFor(t, network, channel))
	if err != nil {
		return Open, fmt.Errorf("fuse: increment: %w", err)
	}
	switch {
	case count <= f.limit:
		return Open, nil
	case count == f.limit+1:
		return JustBlown, nil
	default:
		return Blown, nil
	}
}

// MemoryStore guarda los contadores en memoria y descarta los días anteriores.
type MemoryStore struct {
	mu     sync.Mutex
	day    string
	counts map[Key]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[Key]int64)}
}

func (s *MemoryStore) Increment(_ context.Context, key Key) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key.Day > s.day {
		for k := range s.counts {
			if k.Day < key.Day {
				delete(s.counts, k)
			}
		}
		s.day = key.Day
	}
	s.counts[key]++
	return s.counts[key], nil
}
