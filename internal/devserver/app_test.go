package devserver

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/fintrack/internal/devserver/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.LogLevel = "error"
	return cfg
}

func TestNewApp_SeedUser(t *testing.T) {
	cfg := testConfig()
	cfg.SeedUser = "no-colon"
	_, err := NewApp(cfg)
	assert.Error(t, err)

	cfg.SeedUser = "demo@fintrack.dev:secret123"
	app, err := NewApp(cfg)
	require.NoError(t, err)

	u, err := app.server.store.Authenticate("demo@fintrack.dev", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "demo@fintrack.dev", u.Email)
}

func TestApp_ServeAndShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.SeedUser = "demo@fintrack.dev:secret123"
	app, err := NewApp(cfg)
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, l) }()

	resp, err := http.Post("http://"+l.Addr().String()+"/api/auth/login", "application/json",
		strings.NewReader(`{"email":"demo@fintrack.dev","password":"secret123"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
