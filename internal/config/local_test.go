package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigDir(t *testing.T) {
	t.Parallel()

	dir, err := ConfigDir()

	require.NoError(t, err)
	require.Contains(t, dir, ".booksync")
}

func TestConfigFilePath(t *testing.T) {
	t.Parallel()

	path, err := ConfigFilePath()

	require.NoError(t, err)
	require.Contains(t, path, ".booksync")
	require.Contains(t, path, "config.yaml")
}

func TestTokenFilePath(t *testing.T) {
	t.Parallel()

	path, err := TokenFilePath()

	require.NoError(t, err)
	require.Contains(t, path, ".booksync")
	require.Contains(t, path, "token")
}

func TestDatabaseFilePath(t *testing.T) {
	t.Parallel()

	path, err := DatabaseFilePath()

	require.NoError(t, err)
	require.Equal(t, "booksync.db", filepath.Base(path))
}

func TestLocalConfigValidate(t *testing.T) {
	t.Parallel()

	valid := LocalConfig{
		Database:       Database{Driver: "sqlite", DSN: "/tmp/booksync.db"},
		OrganizationID: "org-1",
		QuickBooks:     QuickBooks{PageSize: 1000, Timeout: time.Second},
	}

	tests := map[string]struct {
		config       LocalConfig
		wantErr      bool
		errFragments []string
	}{
		"valid config": {
			config:  valid,
			wantErr: false,
		},
		"missing all required fields": {
			config:  LocalConfig{},
			wantErr: true,
			errFragments: []string{
				"organization.id is required",
				"database.driver must be one of",
				"database.dsn is required",
				"quickbooks.page_size must be between 1 and 1000, got 0",
				"quickbooks.timeout must be positive",
			},
		},
		"page size above cap": {
			config: LocalConfig{
				Database:       valid.Database,
				OrganizationID: "org-1",
				QuickBooks:     QuickBooks{PageSize: 5000, Timeout: time.Second},
			},
			wantErr:      true,
			errFragments: []string{"quickbooks.page_size must be between 1 and 1000, got 5000"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.config.validate()

			if tc.wantErr {
				require.Error(t, err)
				for _, fragment := range tc.errFragments {
					require.Contains(t, err.Error(), fragment)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoadLocalFromFile(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content     string
		wantErr     bool
		errContains string
		validateCfg func(t *testing.T, cfg *LocalConfig)
	}{
		"full config file": {
			content: `
organization:
  id: "org-1"
database:
  driver: "postgres"
  dsn: "postgres://booksync@localhost/booksync"
quickbooks:
  base_url: "http://localhost:4010"
  page_size: 500
  timeout: "10s"
`,
			validateCfg: func(t *testing.T, cfg *LocalConfig) {
				t.Helper()
				require.Equal(t, "org-1", cfg.OrganizationID)
				require.Equal(t, "postgres", cfg.Database.Driver)
				require.Equal(t, "postgres://booksync@localhost/booksync", cfg.Database.DSN)
				require.Equal(t, "http://localhost:4010", cfg.QuickBooks.BaseURL)
				require.Equal(t, 500, cfg.QuickBooks.PageSize)
				require.Equal(t, 10*time.Second, cfg.QuickBooks.Timeout)
			},
		},
		"defaults to local sqlite": {
			content: `
organization:
  id: "org-1"
`,
			validateCfg: func(t *testing.T, cfg *LocalConfig) {
				t.Helper()
				require.Equal(t, "sqlite", cfg.Database.Driver)
				require.Equal(t, "/home/test/.booksync/booksync.db", cfg.Database.DSN)
				require.Equal(t, 1000, cfg.QuickBooks.PageSize)
				require.Equal(t, 30*time.Second, cfg.QuickBooks.Timeout)
			},
		},
		"postgres without DSN": {
			content: `
organization:
  id: "org-1"
database:
  driver: "postgres"
`,
			wantErr:     true,
			errContains: "database.dsn is required",
		},
		"bad timeout": {
			content: `
organization:
  id: "org-1"
quickbooks:
  timeout: "later"
`,
			wantErr:     true,
			errContains: `quickbooks.timeout must be a duration, got "later"`,
		},
		"invalid yaml": {
			content:     `invalid: yaml: content: [}`,
			wantErr:     true,
			errContains: "parsing config",
		},
		"missing organization": {
			content: `
database:
  driver: "sqlite"
`,
			wantErr:     true,
			errContains: "invalid config",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			configPath := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(tc.content), 0o600))

			cfg, err := loadLocal(configPath, "/home/test/.booksync/booksync.db")

			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errContains)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				tc.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoadLocalFileNotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "nonexistent.yaml")

	_, err := loadLocal(configPath, "")

	require.Error(t, err)
	require.Contains(t, err.Error(), "config file not found")
}

func TestLoadLocal_UsesHome(t *testing.T) {
	// Cannot use t.Parallel() with t.Setenv().
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.False(t, LocalConfigExists())

	dir := filepath.Join(home, ".booksync")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("organization:\n  id: org-9\n"), 0o600))

	require.True(t, LocalConfigExists())

	cfg, err := LoadLocal()
	require.NoError(t, err)
	require.Equal(t, "org-9", cfg.OrganizationID)
	require.Equal(t, filepath.Join(dir, "booksync.db"), cfg.Database.DSN)
}
