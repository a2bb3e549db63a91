package main

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	tenantID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	driverID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	actorID := uuid.MustParse("33333333-3333-3333-3333-333333333333")

	t.Run("tenant with driver and days", func(t *testing.T) {
		opts, err := parseOptions([]string{
			"-tenant", tenantID.String(),
			"-driver", driverID.String(),
			"-actor", actorID.String(),
			"-days", "7",
		}, io.Discard)
		require.NoError(t, err)

		cmd := opts.command()
		assert.Equal(t, tenantID, cmd.TenantID)
		require.NotNil(t, cmd.DriverID)
		assert.Equal(t, driverID, *cmd.DriverID)
		assert.Equal(t, actorID, cmd.ActorID)
		assert.Equal(t, 7, cmd.Days)
		assert.Equal(t, "info", opts.logLevel)
	})

	t.Run("all tenants", func(t *testing.T) {
		opts, err := parseOptions([]string{"-all"}, io.Discard)
		require.NoError(t, err)
		assert.True(t, opts.allTenants)
		assert.Equal(t, uuid.Nil, opts.actorID)
	})

	t.Run("tenant full history", func(t *testing.T) {
		opts, err := parseOptions([]string{"-tenant", tenantID.String()}, io.Discard)
		require.NoError(t, err)
		assert.Equal(t, 0, opts.days)
		assert.Nil(t, opts.driverID)
	})
}

func TestParseOptions_Rejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no scope", nil, "either -tenant or -all"},
		{"all with tenant", []string{"-all", "-tenant", uuid.NewString()}, "cannot be combined"},
		{"bad tenant", []string{"-tenant", "acme"}, "invalid -tenant"},
		{"bad driver", []string{"-tenant", uuid.NewString(), "-driver", "7"}, "invalid -driver"},
		{"bad actor", []string{"-all", "-actor", "root"}, "invalid -actor"},
		{"negative days", []string{"-tenant", uuid.NewString(), "-days", "-1"}, "must not be negative"},
		{"unknown flag", []string{"-force"}, "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOptions(tt.args, io.Discard)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
