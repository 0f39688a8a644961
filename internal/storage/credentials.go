package storage

import (
	"context"
	"errors"
	"strings"
)

// CredentialResolver turns a connection's stored access credential into a bearer token.
// A credential is a Secrets Manager ARN, a "file:" path, or the literal token.
type CredentialResolver struct {
	secrets SecretsManagerAPI
}

// NewCredentialResolver creates a resolver. secrets may be nil when no connection stores an ARN.
func NewCredentialResolver(secrets SecretsManagerAPI) *CredentialResolver {
	return &CredentialResolver{secrets: secrets}
}

// Resolve returns the token ref points at.
func (r *CredentialResolver) Resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)

	switch {
	case ref == "":
		return "", errors.New("connection has no access credential")
	case strings.HasPrefix(ref, secretARNPrefix):
		return secretToken(ctx, r.secrets, ref)
	case strings.HasPrefix(ref, filePrefix):
		f, err := NewTokenFile(strings.TrimPrefix(ref, filePrefix))
		if err != nil {
			return "", err
		}
		return f.Token(ctx)
	default:
		return ref, nil
	}
}
