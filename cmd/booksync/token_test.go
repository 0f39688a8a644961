package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peteski22/booksync/internal/auth"
)

func TestIssueToken(t *testing.T) {
	t.Parallel()

	const secret = "test-secret"

	tests := map[string]struct {
		errMsg  string
		opts    tokenOptions
		secret  string
		wantErr bool
	}{
		"issues verifiable token": {
			opts: tokenOptions{
				email:          "ops@example.com",
				organizationID: "org-1",
				permissions:    []string{auth.PermissionSync},
				ttl:            time.Hour,
				userID:         "user-1",
			},
			secret: secret,
		},
		"missing secret": {
			opts:    tokenOptions{organizationID: "org-1", ttl: time.Hour, userID: "user-1"},
			wantErr: true,
			errMsg:  "AUTH_JWT_SECRET",
		},
		"missing organization": {
			opts:    tokenOptions{ttl: time.Hour, userID: "user-1"},
			secret:  secret,
			wantErr: true,
			errMsg:  "--org is required",
		},
		"missing user": {
			opts:    tokenOptions{organizationID: "org-1", ttl: time.Hour},
			secret:  secret,
			wantErr: true,
			errMsg:  "principal with user ID is required",
		},
		"non-positive ttl": {
			opts:    tokenOptions{organizationID: "org-1", userID: "user-1"},
			secret:  secret,
			wantErr: true,
			errMsg:  "--ttl must be positive",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			err := issueToken(&out, tc.secret, tc.opts)

			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				require.Empty(t, out.String())
				return
			}
			require.NoError(t, err)

			authn, err := auth.NewAuthenticator(secret)
			require.NoError(t, err)
			p, err := authn.ValidateToken(strings.TrimSpace(out.String()))
			require.NoError(t, err)
			require.Equal(t, "user-1", p.UserID)
			require.Equal(t, "org-1", p.OrganizationID)
			require.Equal(t, "ops@example.com", p.Email)
			require.True(t, p.CanSync())
		})
	}
}
