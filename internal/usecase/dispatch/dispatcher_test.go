package dispatch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pladderBot/internal/domain"
	"pladderBot/internal/infrastructure/persistence/sqlite"
	"pladderBot/internal/script"
	"pladderBot/internal/usecase/commands"
	"pladderBot/internal/usecase/fuse"
)

type fixture struct {
	reg    *script.Registry
	events []Event
	d      *Dispatcher
}

type option func(t *testing.T, reg *script.Registry)

func withFailing() option {
	return func(t *testing.T, reg *script.Registry) {
		g, err := reg.NewCommandGroup("failing")
		require.NoError(t, err)
		require.NoError(t, g.RegisterCommand("boom", func(context.Context, []string) (string, error) {
			return "", errors.New("boom")
		}, script.WithParams("text"), script.WithOptional(1), script.WithVarargs()))
		require.NoError(t, g.RegisterCommand("kaboom", func(context.Context, []string) (string, error) {
			panic("kaboom")
		}))
	}
}

func withFilter(target string) option {
	return func(t *testing.T, reg *script.Registry) {
		require.NoError(t, commands.RegisterOutputFilter(reg, target))
	}
}

func newFixture(t *testing.T, limit int, opts ...option) *fixture {
	t.Helper()
	store, err := sqlite.NewAliasStore(filepath.Join(t.TempDir(), "alias.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	reg := script.NewRegistry()
	engine := script.NewEngine(16)
	require.NoError(t, commands.RegisterBuiltins(reg))
	require.NoError(t, commands.RegisterText(reg))
	_, err = commands.RegisterAliases(reg, store, engine, nil)
	require.NoError(t, err)
	for _, opt := range opts {
		opt(t, reg)
	}

	f := &fixture{reg: reg}
	f.d = New(Config{
		Registry:    reg,
		Interpreter: engine,
		Fuse:        fuse.New(fuse.NewMemoryStore(), limit),
		Observers: []Observer{ObserverFunc(func(_ context.Context, ev Event) {
			f.events = append(f.events, ev)
		})},
	})
	return f
}

var noon = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func (f *fixture) run(text string) domain.Result {
	return f.runIn("#c", text)
}

func (f *fixture) runIn(channel, text string) domain.Result {
	return f.d.RunCommand(context.Background(), domain.Message{
		Timestamp: noon,
		Network:   domain.PlatformTwitch,
		Channel:   channel,
		Nick:      "nick",
		Text:      text,
	})
}

func TestRunCommand(t *testing.T) {
	t.Run("echo", func(t *testing.T) {
		f := newFixture(t, 100)
		assert.Equal(t, domain.Result{Text: "hi", Command: "echo"}, f.run("echo hi"))
	})

	t.Run("alias lifecycle", func(t *testing.T) {
		f := newFixture(t, 100)
		res := f.run("add-alias greet {[echo hello]}")
		assert.Equal(t, "add-alias", res.Command)

		assert.Equal(t, domain.Result{Text: "hello", Command: "greet"}, f.run("greet"))
		assert.Equal(t, domain.Result{Text: "add-alias greet {[echo hello]}", Command: "source"}, f.run("source greet"))

		// el cuerpo es una plantilla para echo: sin corchetes no se ejecuta nada
		f.run("add-alias plain {echo hello}")
		assert.Equal(t, domain.Result{Text: "echo hello", Command: "plain"}, f.run("plain"))
	})

	t.Run("unknown command", func(t *testing.T) {
		f := newFixture(t, 100)
		res := f.run("nope")
		assert.Equal(t, "Error: Unknown command name: nope", res.Text)
		assert.True(t, res.IsError())
	})

	t.Run("wrong arity", func(t *testing.T) {
		f := newFixture(t, 100)
		assert.Equal(t, domain.Result{Text: "Usage: usage name", Command: "usage"}, f.run("usage"))
		assert.Equal(t, domain.Result{Text: "Usage: add-alias name data...", Command: "add-alias"}, f.run("add-alias x"))
	})

	t.Run("recursion", func(t *testing.T) {
		f := newFixture(t, 100)
		f.run("add-alias loop {[loop]}")
		assert.Equal(t, domain.Result{Text: RecursionNotice, Command: domain.ResultCommandError}, f.run("loop"))
	})

	t.Run("internal error", func(t *testing.T) {
		f := newFixture(t, 100, withFailing())
		assert.Equal(t, domain.Result{Text: "Internal error: boom", Command: domain.ResultCommandError}, f.run("boom"))
		assert.Equal(t, domain.Result{Text: "Internal error: panic: kaboom", Command: domain.ResultCommandError}, f.run("kaboom"))

		// el dispatcher sigue operativo tras un panic
		assert.Equal(t, "ok", f.run("echo ok").Text)
	})

	t.Run("parse error", func(t *testing.T) {
		f := newFixture(t, 100)
		res := f.run("echo {unterminated")
		assert.True(t, res.IsError())
		assert.True(t, strings.HasPrefix(res.Text, "Error: "), res.Text)
	})

	t.Run("truncates long results", func(t *testing.T) {
		f := newFixture(t, 100)
		res := f.run("echo " + strings.Repeat("å", MaxResultLength+50))
		assert.Equal(t, MaxResultLength, utf8.RuneCountInString(res.Text))
		assert.Equal(t, "echo", res.Command)
	})
}

func TestFuse(t *testing.T) {
	f := newFixture(t, 2)

	assert.Equal(t, "1", f.run("echo 1").Text)
	assert.Equal(t, "2", f.run("echo 2").Text)
	assert.Equal(t, domain.Result{Text: FuseBlownNotice, Command: domain.ResultCommandError}, f.run("echo 3"))
	assert.Equal(t, domain.Result{Text: "", Command: domain.ResultCommandError}, f.run("echo 4"))

	// otro canal tiene su propio contador
	assert.Equal(t, "other", f.runIn("#other", "echo other").Text)

	require.Len(t, f.events, 5)
	assert.Equal(t, OutcomeFuseJustBlown, f.events[2].Outcome)
	assert.Equal(t, OutcomeFuseBlown, f.events[3].Outcome)
}

func TestOutputFilter(t *testing.T) {
	t.Run("applied to successful results", func(t *testing.T) {
		f := newFixture(t, 100, withFilter("upper"))
		assert.Equal(t, domain.Result{Text: "HELLO {THERE}", Command: "echo"}, f.run("echo hello {{there}}"))
	})

	t.Run("skipped for errors", func(t *testing.T) {
		f := newFixture(t, 100, withFilter("upper"))
		assert.Equal(t, "Error: Unknown command name: nope", f.run("nope").Text)
	})

	t.Run("failure", func(t *testing.T) {
		f := newFixture(t, 100, withFailing(), withFilter("boom"))
		assert.Equal(t, domain.Result{
			Text:    "Internal error while running output-filter: boom",
			Command: domain.ResultCommandError,
		}, f.run("echo hi"))
		require.Len(t, f.events, 1)
		assert.Equal(t, OutcomeFilterFailed, f.events[0].Outcome)
	})
}

func TestLastContext(t *testing.T) {
	f := newFixture(t, 100)

	_, ok := f.d.LastContext("twitch", "#c")
	assert.False(t, ok)

	f.run("echo hi")
	c, ok := f.d.LastContext("twitch", "#c")
	require.True(t, ok)
	assert.Equal(t, "nick", c.Metadata.Nick)
	assert.Equal(t, "echo hi", c.Metadata.Text)
	assert.Equal(t, noon, c.Metadata.Datetime)
}

func TestLastContextRecordedWhenFuseBlocks(t *testing.T) {
	f := newFixture(t, 1)

	assert.Equal(t, "first", f.run("echo first").Text)

	assert.Equal(t, FuseBlownNotice, f.run("echo second").Text)
	c, ok := f.d.LastContext("twitch", "#c")
	require.True(t, ok)
	assert.Equal(t, "echo second", c.Metadata.Text)

	assert.Equal(t, domain.Result{Text: "", Command: domain.ResultCommandError}, f.run("echo third"))
	c, ok = f.d.LastContext("twitch", "#c")
	require.True(t, ok)
	assert.Equal(t, "echo third", c.Metadata.Text)
}
