package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/daily-decree/internal/config"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestWarnOpenAdmin(t *testing.T) {
	logs := captureLogs(t)
	warnOpenAdmin(&config.Config{Port: 8080})
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "DECREE_ADMIN_KEY not set")
	assert.Contains(t, logs.String(), "addr=:8080")
}

func TestWarnOpenAdminQuietWithKey(t *testing.T) {
	logs := captureLogs(t)
	warnOpenAdmin(&config.Config{Port: 8080, AdminKey: "sekrit"})
	assert.Empty(t, logs.String())
}
