package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/reasongraph/internal/model"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"climate", "climate"},
		{"climate change", "climate-change"},
		{"a/b\\c:d", "a_b_c_d"},
		{"  padded  ", "padded"},
		{"", "report"},
		{"..", "report"},
		{strings.Repeat("x", 150), strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFilename(tt.in))
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, writeDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# ReasonGraph Configuration File"))

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, *model.DefaultConfig(), cfg)

	err = writeDefaultConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestSetDefaults_UnmarshalsToDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v, model.DefaultConfig())

	var cfg model.Config
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, *model.DefaultConfig(), cfg)
}

func TestSetDefaults_EnvOverride(t *testing.T) {
	t.Setenv("REASONGRAPH_PROPAGATION_MAX_DEPTH", "7")

	v := viper.New()
	setDefaults(v, model.DefaultConfig())
	v.SetEnvPrefix("REASONGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg model.Config
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, 7, cfg.Propagation.MaxDepth)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(model.LoggingConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = newLogger(model.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)

	_, err = newLogger(model.LoggingConfig{Level: "loud", Format: "text"})
	assert.Error(t, err)
}
