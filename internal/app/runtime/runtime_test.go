package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pladderBot/internal/domain"
	"pladderBot/internal/infrastructure/config"
	"pladderBot/internal/usecase/dispatch"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		StateDir:  t.TempDir(),
		Prefix:    "~",
		FuseLimit: 3,
		MaxDepth:  16,
		APIAddr:   "127.0.0.1:0",
		APIRate:   5,
	}
}

func run(rt *Runtime, text string) domain.Result {
	return rt.Dispatcher().RunCommand(context.Background(), domain.Message{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Network:   domain.PlatformAPI,
		Channel:   "test",
		Nick:      "tester",
		Text:      text,
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.OutputFilter = "upper"

	rt, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close()) }()

	assert.Equal(t, []string{"builtin", "text", "alias", "output-filter"}, rt.Bot().Plugins())

	results, unsubscribe := rt.Bus().Subscribe("command:result")
	defer unsubscribe()

	assert.Equal(t, domain.Result{Text: "HEJ!", Command: "hello"}, run(rt, "hello"))
	assert.Len(t, results, 1)

	// cada comando gasta dos del fusible: el comando y el filtro
	assert.Equal(t, dispatch.FuseBlownNotice, run(rt, "echo x").Text)

	svc, err := rt.Aliases()
	require.NoError(t, err)
	exported, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "add-alias hello Hej!", exported)
}

func TestNewWithRedisFuse(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisAddr = mr.Addr()

	rt, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close()) }()

	assert.Equal(t, "hi", run(rt, "echo hi").Text)
	assert.True(t, mr.Exists(`pladder:fuse:"api"/"test"/2026-03-01`))
}

func TestNewRedisUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	rt, err := New(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	defer func() { _ = rt.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return")
	}
}
