package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configDirName    = ".booksync"
	configFileName   = "config.yaml"
	databaseFileName = "booksync.db"
	tokenFileName    = "token"
)

// LocalConfig holds configuration loaded from a local file.
type LocalConfig struct {
	Database       Database
	OrganizationID string
	QuickBooks     QuickBooks
}

// localConfig represents the local configuration file structure.
type localConfig struct {
	Database     localDatabase     `yaml:"database"`
	Organization localOrganization `yaml:"organization"`
	QuickBooks   localQuickBooks   `yaml:"quickbooks"`
}

// localDatabase represents the database section of the config file.
type localDatabase struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// localOrganization represents the organization section of the config file.
type localOrganization struct {
	ID string `yaml:"id"`
}

// localQuickBooks represents the quickbooks section of the config file.
type localQuickBooks struct {
	BaseURL  string `yaml:"base_url"`
	PageSize int    `yaml:"page_size"`
	Timeout  string `yaml:"timeout"`
}

// ConfigDir returns the booksync configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// ConfigFilePath returns the path to the local config file.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// DatabaseFilePath returns the path to the default local SQLite database.
func DatabaseFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, databaseFileName), nil
}

// TokenFilePath returns the path to the local token file.
func TokenFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, tokenFileName), nil
}

// LoadLocal loads configuration from the local config file.
func LoadLocal() (*LocalConfig, error) {
	configPath, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}

	defaultDSN, err := DatabaseFilePath()
	if err != nil {
		return nil, err
	}

	return loadLocal(configPath, defaultDSN)
}

// loadLocal parses the config file at configPath, applying defaults.
func loadLocal(configPath string, defaultDSN string) (*LocalConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run 'booksync init' to create)", configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var local localConfig
	if err := yaml.Unmarshal(data, &local); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &LocalConfig{}
	cfg.Database.Driver = local.Database.Driver
	cfg.Database.DSN = local.Database.DSN
	cfg.OrganizationID = local.Organization.ID
	cfg.QuickBooks.BaseURL = local.QuickBooks.BaseURL
	cfg.QuickBooks.PageSize = local.QuickBooks.PageSize

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = defaultDSN
	}
	if cfg.QuickBooks.PageSize == 0 {
		cfg.QuickBooks.PageSize = defaultPageSize
	}

	var errs []error
	cfg.QuickBooks.Timeout = defaultQuickBooksTimeout
	if local.QuickBooks.Timeout != "" {
		d, err := time.ParseDuration(local.QuickBooks.Timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("quickbooks.timeout must be a duration, got %q", local.QuickBooks.Timeout))
		}
		cfg.QuickBooks.Timeout = d
	}

	if err := errors.Join(append(errs, cfg.validate())...); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LocalConfigExists checks if a local config file exists.
func LocalConfigExists() bool {
	configPath, err := ConfigFilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(configPath)
	return err == nil
}

// validate checks that required fields are set.
func (c *LocalConfig) validate() error {
	var errs []error

	if c.OrganizationID == "" {
		errs = append(errs, errors.New("organization.id is required"))
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be one of postgres, mysql, sqlite, got %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.QuickBooks.PageSize < 1 || c.QuickBooks.PageSize > maxPageSize {
		errs = append(errs, fmt.Errorf("quickbooks.page_size must be between 1 and %d, got %d", maxPageSize, c.QuickBooks.PageSize))
	}
	if c.QuickBooks.Timeout <= 0 {
		errs = append(errs, errors.New("quickbooks.timeout must be positive"))
	}

	return errors.Join(errs...)
}
