package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/focusvent/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"create sale products", "create_sale_products"},
		{"Add-Observation-Column", "add_observation_column"},
		{"add__index", "add_index"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create sale products")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_sale_products.up.sql"), first.UpPath)
	assert.FileExists(t, first.DownPath)

	content, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "-- Migration: create sale products")

	second, err := CreateMigration(dir, "add observation index")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)

	names, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_sale_products", "000002_add_observation_index"}, names)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!")
	assert.Error(t, err)
}

func TestListMigrations_MissingDir(t *testing.T) {
	names, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := filepath.Glob("../../../migrations/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)

	for _, up := range ups {
		base := filepath.Base(up)
		down := base[:len(base)-len(upSuffix)] + downSuffix
		_, err := migrations.FS.Open(base)
		assert.NoError(t, err, "embedded %s", base)
		_, err = migrations.FS.Open(down)
		assert.NoError(t, err, "embedded %s", down)
	}
}
