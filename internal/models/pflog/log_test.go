package pflog

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel("error"))

	// Niveau inconnu ou vide: info par défaut
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("verbose"))
}

func TestExtractLevelFromJSON(t *testing.T) {
	assert.Equal(t, "info", extractLevelFromJSON(`{"level":"info","message":"test"}`))
	assert.Equal(t, "error", extractLevelFromJSON(`{"time":"x","level":"error"}`))
	assert.Equal(t, "", extractLevelFromJSON(`{"message":"sans niveau"}`))
	assert.Equal(t, "", extractLevelFromJSON(`pas du json`))
}
