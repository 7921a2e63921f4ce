package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("PARCELTRACK_STORAGE_DRIVER", "postgres")
	t.Setenv("PARCELTRACK_POSTGRES_DSN", "")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PARCELTRACK_POSTGRES_DSN")
}

func TestRun_InvalidLogLevel(t *testing.T) {
	t.Setenv("PARCELTRACK_LOG_LEVEL", "chatty")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level")
}
