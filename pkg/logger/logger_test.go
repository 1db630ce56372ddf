package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Writer: &buf})

	log.Info().Msg("dropped line")
	log.Warn().Msg("kept line")

	out := buf.String()
	assert.NotContains(t, out, "dropped line")
	assert.Contains(t, out, "kept line")
	assert.Contains(t, out, `"level":"warn"`)
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "shouting", Writer: &buf})

	log.Debug().Msg("dropped line")
	log.Info().Msg("kept line")

	out := buf.String()
	assert.NotContains(t, out, "dropped line")
	assert.Contains(t, out, "kept line")
}
