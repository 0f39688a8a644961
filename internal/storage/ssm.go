package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMAPI defines the SSM operations used by the parameter store.
type SSMAPI interface {
	// GetParameter retrieves a parameter from SSM.
	GetParameter(
		ctx context.Context,
		params *ssm.GetParameterInput,
		optFns ...func(*ssm.Options),
	) (*ssm.GetParameterOutput, error)
}

// ParameterStore reads deployment settings, such as the database DSN, from AWS SSM Parameter Store.
type ParameterStore struct {
	// client is the SSM API client.
	client SSMAPI
}

// Value returns the decrypted value of the named parameter.
func (p *ParameterStore) Value(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", errors.New("parameter name is required")
	}

	output, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFoundErr *types.ParameterNotFound
		if errors.As(err, &notFoundErr) {
			return "", fmt.Errorf("parameter %s not found", name)
		}
		return "", fmt.Errorf("getting parameter from SSM: %w", err)
	}

	if output.Parameter == nil || output.Parameter.Value == nil || *output.Parameter.Value == "" {
		return "", fmt.Errorf("parameter %s has no value", name)
	}

	return *output.Parameter.Value, nil
}

// NewParameterStore creates a new SSM-backed parameter store.
func NewParameterStore(client SSMAPI) (*ParameterStore, error) {
	if client == nil {
		return nil, errors.New("ssm client is required")
	}

	return &ParameterStore{client: client}, nil
}
