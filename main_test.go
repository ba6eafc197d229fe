package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic-management/config"
	"clinic-management/handlers"
	"clinic-management/models"
)

func TestOpenBackend(t *testing.T) {
	tests := []struct {
		backend string
		want    string
	}{
		{config.BackendFile, "file"},
		{config.BackendMemory, "memory"},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			a := &app{
				cfg:          &config.Config{StorageBackend: tt.backend, DataFile: filepath.Join(t.TempDir(), "clinic.json")},
				logger:       zap.NewNop(),
				healthChecks: map[string]handlers.HealthCheck{},
			}
			backend, err := a.openBackend()
			require.NoError(t, err)
			assert.Equal(t, tt.want, backend.Name())
			assert.Empty(t, a.healthChecks)
		})
	}
}

func TestInitCmd_Flags(t *testing.T) {
	cmd := initCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--name", "Nile Clinic", "--phone", "0200"}))

	settings := settingsFromFlags(cmd)
	defaults := models.DefaultClinicSettings()
	assert.Equal(t, "Nile Clinic", settings.Name)
	assert.Equal(t, "0200", settings.Phone)
	assert.Equal(t, defaults.DoctorName, settings.DoctorName)
	assert.Equal(t, defaults.Address, settings.Address)
}

func TestResetCmd_RequiresConfirmation(t *testing.T) {
	cmd := resetCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestRemindCmd_RunsAgainstFileStore(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", config.BackendFile)
	t.Setenv("DATA_FILE", filepath.Join(t.TempDir(), "clinic.json"))
	t.Setenv("KAFKA_BROKER", "")
	t.Setenv("SENTRY_DSN", "")

	cmd := remindCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "0 appointment(s) flagged\n", out.String())
}
