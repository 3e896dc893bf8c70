package config

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainConfig struct {
	Port int `env:"LOADER_TEST_PORT" envDefault:"8080"`
}

type validatedConfig struct {
	Port int `env:"LOADER_TEST_PORT" envDefault:"8080"`
}

func (c *validatedConfig) Validate() error {
	if c.Port < 1024 {
		return fmt.Errorf("port %d is reserved", c.Port)
	}
	return nil
}

func TestLoad_Plain(t *testing.T) {
	t.Setenv("LOADER_TEST_PORT", "9000")

	var cfg plainConfig
	require.NoError(t, Load(&cfg))
	assert.Equal(t, 9000, cfg.Port)
}

func TestLoad_RunsValidator(t *testing.T) {
	t.Setenv("LOADER_TEST_PORT", "80")

	var cfg validatedConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
	assert.Contains(t, err.Error(), "port 80 is reserved")
}

func TestLoad_ValidatorPasses(t *testing.T) {
	var cfg validatedConfig
	require.NoError(t, Load(&cfg))
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoad_ParseFailure(t *testing.T) {
	t.Setenv("LOADER_TEST_PORT", "not-a-number")

	var cfg plainConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
