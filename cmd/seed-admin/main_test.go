package main

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/hostel-desk/internal/application"
	"github.com/example/hostel-desk/internal/testfixtures"
)

func noEnv(string) string { return "" }

func TestParseOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := parseOptions(nil, noEnv, io.Discard)
		require.NoError(t, err)
		assert.Equal(t, "admin@example.com", opts.email)
		assert.Equal(t, "ADMIN", opts.role)
		assert.Equal(t, "9999999999", opts.phone)
		assert.Equal(t, defaultPassword, opts.password)
		assert.Equal(t, "hostel.db", opts.dsn)
	})

	t.Run("environment supplies password and database", func(t *testing.T) {
		env := map[string]string{"HOSTEL_SEED_ADMIN_PASSWORD": "from-env", "HOSTEL_SQLITE_DSN": "/tmp/h.db"}
		opts, err := parseOptions(nil, func(k string) string { return env[k] }, io.Discard)
		require.NoError(t, err)
		assert.Equal(t, "from-env", opts.password)
		assert.Equal(t, "/tmp/h.db", opts.dsn)
	})

	t.Run("flags win", func(t *testing.T) {
		opts, err := parseOptions([]string{"-password", "flagged", "-role", "warden", "-email", " Warden@Example.com "}, func(string) string { return "env" }, io.Discard)
		require.NoError(t, err)
		assert.Equal(t, "flagged", opts.password)
		assert.Equal(t, "WARDEN", opts.role)
		assert.Equal(t, "warden@example.com", opts.email)
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		_, err := parseOptions([]string{"-role", "STUDENT"}, noEnv, io.Discard)
		assert.Error(t, err)
	})
}

func TestSeedAdmin(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	opts, err := parseOptions([]string{"-hash", "bcrypt", "-bcrypt-cost", "4"}, noEnv, io.Discard)
	require.NoError(t, err)
	now := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	var out bytes.Buffer
	require.NoError(t, seedAdmin(ctx, harness.Storage.Admins, opts, func() string { return "admin-seed" }, now, &out))
	assert.Contains(t, out.String(), "created ADMIN admin@example.com")

	stored, err := harness.Storage.Admins.GetAdminByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "admin-seed", stored.ID)
	assert.NoError(t, application.NewPasswordHasher(application.HashArgon2id, 0).Verify(stored.PasswordHash, defaultPassword),
		"bcrypt hash verifies with an argon2id-configured hasher")

	out.Reset()
	require.NoError(t, seedAdmin(ctx, harness.Storage.Admins, opts, func() string { return "second" }, now, &out))
	assert.Contains(t, out.String(), "already exists")
}
