package cli

import (
	"bytes"
	"testing"

	"github.com/ppiankov/vignette/internal/config"
	"github.com/ppiankov/vignette/internal/pipeline"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func TestMask(t *testing.T) {
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "****", mask("short"))
	assert.Equal(t, "sk-p****yz", mask("sk-proj-abcxyz"))
}

func TestDefaultConfigFile_RoundTrips(t *testing.T) {
	data, err := defaultConfigFile()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Contains(t, raw, "generation")

	t.Setenv("OPENAI_API_KEY", "sk-test")
	v := viper.New()
	require.NoError(t, config.Prepare(v))
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewReader(data)))

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Generation.Backoff, cfg.Generation.Backoff)
	assert.Len(t, cfg.Generation.AnswerStyles, 5)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "status", "config", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestNewDriver_RejectsEmptyProvider(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = ""
	_, err := newDriver(&cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestPrintSummary_AllOutcomes(t *testing.T) {
	for _, o := range []pipeline.Outcome{pipeline.OutcomeProduced, pipeline.OutcomeNothingPending, pipeline.OutcomeAllFailed} {
		printSummary(&pipeline.Summary{Outcome: o})
	}
}
