package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfig(t *testing.T) {
	assert.Equal(t, Config{Level: slog.LevelDebug, Format: "text"}, FromConfig("debug", ""))
	assert.Equal(t, Config{Level: slog.LevelWarn, Format: "json"}, FromConfig("WARN", "JSON"))
	assert.Equal(t, slog.LevelInfo, FromConfig("verbose", "").Level)
}

func TestNew(t *testing.T) {
	t.Run("json 形式", func(t *testing.T) {
		var buf bytes.Buffer
		l := WithComponent(New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf}), "studio")
		l.Info("hello", "user", "alice")
		l.Debug("hidden")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "studio", entry["component"])
		assert.Equal(t, "alice", entry["user"])
	})

	t.Run("text 形式はレベル未満を出さない", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(Config{Level: slog.LevelWarn, Format: "text", Output: &buf})
		l.Info("quiet")
		assert.Empty(t, buf.String())
		l.Warn("loud")
		assert.Contains(t, buf.String(), "loud")
	})
}
