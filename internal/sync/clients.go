package sync

import (
	"context"
	"fmt"

	"github.com/peteski22/booksync/internal/mirror"
	"github.com/peteski22/booksync/internal/quickbooks"
)

// CredentialResolver turns a stored access credential reference into a bearer token.
type CredentialResolver interface {
	// Resolve returns the token the reference points at.
	Resolve(ctx context.Context, ref string) (string, error)
}

// QuickBooksClients returns a ClientFactory that resolves each connection's
// access credential and builds a client for its realm and environment.
// opts are applied after the connection's environment, so WithBaseURL overrides it.
func QuickBooksClients(creds CredentialResolver, opts ...quickbooks.Option) ClientFactory {
	return func(ctx context.Context, conn *mirror.Connection) (Querier, error) {
		token, err := creds.Resolve(ctx, conn.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("resolving access token: %w", err)
		}

		all := append([]quickbooks.Option{quickbooks.WithEnvironment(conn.Environment)}, opts...)

		client, err := quickbooks.NewClient(token, conn.RealmID, all...)
		if err != nil {
			return nil, fmt.Errorf("creating client: %w", err)
		}
		return client, nil
	}
}
