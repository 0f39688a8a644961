package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peteski22/booksync/internal/quickbooks"
)

func TestLoad(t *testing.T) {
	// Cannot use t.Parallel() with t.Setenv().
	tests := map[string]struct {
		envVars      map[string]string
		errFragments []string
		wantSettings *Settings
		wantErr      bool
	}{
		"only DSN set": {
			envVars: map[string]string{
				EnvDatabaseDSN: "postgres://booksync@localhost/booksync",
			},
			wantErr: false,
			wantSettings: &Settings{
				Database: Database{
					DSN:    "postgres://booksync@localhost/booksync",
					Driver: "postgres",
				},
				HTTP: HTTP{
					Port: "8080",
				},
				LogLevel: slog.LevelInfo,
				QuickBooks: QuickBooks{
					PageSize: 1000,
					Timeout:  30 * time.Second,
				},
				Sync: Sync{
					LockTTL: 30 * time.Minute,
				},
			},
		},
		"everything set": {
			envVars: map[string]string{
				EnvAuthJWTSecret:        "s3cret",
				EnvDatabaseDSNParameter: "/booksync/dsn",
				EnvDatabaseDriver:       "mysql",
				EnvDatabaseMaxIdleConns: "5",
				EnvDatabaseMaxOpenConns: "20",
				EnvDynamoDBLockTable:    "booksync-locks",
				EnvHTTPCORSOrigins:      "https://portal.example.com, https://admin.example.com,",
				EnvHTTPPort:             "9090",
				EnvLogLevel:             "debug",
				EnvQuickBooksBaseURL:    "http://localhost:4010",
				EnvQuickBooksPageSize:   "250",
				EnvQuickBooksTimeout:    "5s",
				EnvRedisAddress:         "localhost:6379",
				EnvSyncLockTTL:          "10m",
				EnvSyncOrganizationID:   "org-1",
			},
			wantErr: false,
			wantSettings: &Settings{
				Auth: Auth{
					JWTSecret: "s3cret",
				},
				Database: Database{
					DSNParameter: "/booksync/dsn",
					Driver:       "mysql",
					MaxIdleConns: 5,
					MaxOpenConns: 20,
				},
				DynamoDB: DynamoDB{
					LockTable: "booksync-locks",
				},
				HTTP: HTTP{
					CORSOrigins: []string{"https://portal.example.com", "https://admin.example.com"},
					Port:        "9090",
				},
				LogLevel: slog.LevelDebug,
				QuickBooks: QuickBooks{
					BaseURL:  "http://localhost:4010",
					PageSize: 250,
					Timeout:  5 * time.Second,
				},
				Redis: Redis{
					Address: "localhost:6379",
				},
				Sync: Sync{
					LockTTL:        10 * time.Minute,
					OrganizationID: "org-1",
				},
			},
		},
		"missing DSN": {
			envVars:      map[string]string{},
			wantErr:      true,
			errFragments: []string{EnvDatabaseDSN + " or " + EnvDatabaseDSNParameter + " is required"},
		},
		"whitespace only DSN treated as empty": {
			envVars: map[string]string{
				EnvDatabaseDSN: "   ",
			},
			wantErr:      true,
			errFragments: []string{EnvDatabaseDSN + " or " + EnvDatabaseDSNParameter + " is required"},
		},
		"invalid values are all reported": {
			envVars: map[string]string{
				EnvDatabaseMaxOpenConns: "many",
				EnvLogLevel:             "loud",
				EnvQuickBooksTimeout:    "soon",
			},
			wantErr: true,
			errFragments: []string{
				EnvDatabaseMaxOpenConns + " must be an integer",
				EnvLogLevel,
				EnvQuickBooksTimeout + " must be a duration",
			},
		},
		"out of range settings": {
			envVars: map[string]string{
				EnvDatabaseDSN:        "file.db",
				EnvDatabaseDriver:     "oracle",
				EnvQuickBooksPageSize: "1001",
				EnvSyncLockTTL:        "0s",
			},
			wantErr: true,
			errFragments: []string{
				EnvDatabaseDriver + " must be one of",
				EnvQuickBooksPageSize + " must be between 1 and 1000, got 1001",
				EnvSyncLockTTL + " must be positive",
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			// Clear anything the host environment may set.
			for _, k := range []string{
				EnvAuthJWTSecret, EnvDatabaseDSN, EnvDatabaseDSNParameter, EnvDatabaseDriver,
				EnvDatabaseMaxIdleConns, EnvDatabaseMaxOpenConns, EnvDynamoDBLockTable, EnvHTTPCORSOrigins,
				EnvHTTPPort, EnvLogLevel, EnvQuickBooksBaseURL, EnvQuickBooksPageSize, EnvQuickBooksTimeout,
				EnvRedisAddress, EnvSyncLockTTL, EnvSyncOrganizationID,
			} {
				t.Setenv(k, "")
			}
			for k, v := range tc.envVars {
				t.Setenv(k, v)
			}

			settings, err := Load()

			if tc.wantErr {
				require.Error(t, err)
				for _, fragment := range tc.errFragments {
					require.Contains(t, err.Error(), fragment)
				}
				require.Nil(t, settings)
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.wantSettings, settings)
			}
		})
	}
}

func TestSettings_ValidateServer(t *testing.T) {
	t.Parallel()

	s := &Settings{}
	err := s.ValidateServer()
	require.Error(t, err)
	require.Contains(t, err.Error(), EnvAuthJWTSecret+" is required")

	s.Auth.JWTSecret = "s3cret"
	require.NoError(t, s.ValidateServer())
}

func TestSettings_ValidateScheduled(t *testing.T) {
	t.Parallel()

	s := &Settings{}
	err := s.ValidateScheduled()
	require.Error(t, err)
	require.Contains(t, err.Error(), EnvDynamoDBLockTable+" is required")
	require.Contains(t, err.Error(), EnvSyncOrganizationID+" is required")

	s.DynamoDB.LockTable = "locks"
	s.Sync.OrganizationID = "org-1"
	require.NoError(t, s.ValidateScheduled())
}

func TestEnvOrDefault(t *testing.T) {
	// Cannot use t.Parallel() with t.Setenv().
	tests := map[string]struct {
		defaultVal string
		envKey     string
		envVal     string
		setEnv     bool
		want       string
	}{
		"returns env value when set": {
			envKey:     "TEST_VAR",
			envVal:     "custom-value",
			setEnv:     true,
			defaultVal: "default-value",
			want:       "custom-value",
		},
		"returns default when not set": {
			envKey:     "TEST_VAR_UNSET",
			setEnv:     false,
			defaultVal: "default-value",
			want:       "default-value",
		},
		"returns default when empty": {
			envKey:     "TEST_VAR_EMPTY",
			envVal:     "",
			setEnv:     true,
			defaultVal: "default-value",
			want:       "default-value",
		},
		"trims whitespace": {
			envKey:     "TEST_VAR_SPACES",
			envVal:     "  value  ",
			setEnv:     true,
			defaultVal: "default-value",
			want:       "value",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if tc.setEnv {
				t.Setenv(tc.envKey, tc.envVal)
			}

			got := envOrDefault(tc.envKey, tc.defaultVal)

			require.Equal(t, tc.want, got)
		})
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	require.Nil(t, splitList(""))
	require.Nil(t, splitList(" , "))
	require.Equal(t, []string{"a", "b"}, splitList("a, b"))
}

func TestQuickBooks_ClientOptions(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		qb       QuickBooks
		wantOpts int
	}{
		"timeout only": {
			qb:       QuickBooks{Timeout: time.Second},
			wantOpts: 1,
		},
		"base URL override": {
			qb:       QuickBooks{BaseURL: "http://localhost:9000", Timeout: time.Second},
			wantOpts: 2,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			opts := tc.qb.ClientOptions()
			require.Len(t, opts, tc.wantOpts)

			_, err := quickbooks.NewClient("token", "realm-1", opts...)
			require.NoError(t, err)
		})
	}
}
