package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riscvkern/riscvkern/pkg/config"
	"github.com/riscvkern/riscvkern/pkg/memory"
)

func testAppConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)

	cfg, err := config.NewAppConfig("riscvkern", "test-version", "test-commit", "test-date", "test-build-source", false)
	if err != nil {
		t.Fatalf("NewAppConfig: %v", err)
	}
	cfg.UserConfig.Scheduler.MaxProcs = 4
	cfg.UserConfig.Memory.NumPages = 8
	cfg.UserConfig.Boot = []string{"init"}
	return cfg
}

func TestNewAppBootsConfiguredPrograms(t *testing.T) {
	cfg := testAppConfig(t)

	app, err := NewApp(cfg)
	assert.Nil(t, err)
	assert.NotNil(t, app.Kernel)
	assert.NotNil(t, app.Monitor)
	assert.NotNil(t, app.Tr)
	assert.Equal(t, 1, app.Kernel.Table.NumProcs)
}

func TestNewAppFailsWhenBootProgramTableFull(t *testing.T) {
	cfg := testAppConfig(t)
	cfg.UserConfig.Scheduler.MaxProcs = 1
	cfg.UserConfig.Boot = []string{"init", "hello"}

	_, err := NewApp(cfg)
	assert.NotNil(t, err)
}

func TestAppFieldsInitialization(t *testing.T) {
	cfg := testAppConfig(t)

	app, err := NewApp(cfg)
	assert.Nil(t, err)
	assert.NotNil(t, app)

	assert.NotNil(t, app.Config)
	assert.NotNil(t, app.Log)
	assert.NotNil(t, app.Tr)
	assert.NotNil(t, app.ErrorChan)
	assert.NotNil(t, app.Kernel)
	assert.NotNil(t, app.Monitor)
}

func TestKnownErrorMapsDomainErrors(t *testing.T) {
	cfg := testAppConfig(t)
	app, err := NewApp(cfg)
	assert.Nil(t, err)

	tests := []struct {
		name        string
		err         error
		expectKnown bool
		expectedMsg string
	}{
		{
			name:        "out of memory",
			err:         memory.ErrOutOfMemory,
			expectKnown: true,
			expectedMsg: app.Tr.ErrNoFreePage,
		},
		{
			name:        "unknown error",
			err:         errors.New("some unrelated error"),
			expectKnown: false,
			expectedMsg: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, known := app.KnownError(tt.err)
			assert.Equal(t, tt.expectKnown, known)
			if tt.expectKnown {
				assert.Equal(t, tt.expectedMsg, msg)
			} else {
				assert.Empty(t, msg)
			}
		})
	}
}
