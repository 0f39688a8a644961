package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// secretARNPrefix marks a credential stored in AWS Secrets Manager.
const secretARNPrefix = "arn:aws:secretsmanager:"

// SecretsManagerAPI defines the Secrets Manager operations used by the credential resolver.
type SecretsManagerAPI interface {
	// GetSecretValue retrieves a secret value.
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// secretPayload is the JSON shape written by the token refresher.
type secretPayload struct {
	AccessToken string `json:"access_token"`
}

// secretToken returns the access token held in a secret.
// The secret is either the bare token or a JSON object with an access_token field.
func secretToken(ctx context.Context, client SecretsManagerAPI, secretARN string) (string, error) {
	if client == nil {
		return "", errors.New("secrets manager client is required to resolve secret credentials")
	}

	output, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretARN),
	})
	if err != nil {
		return "", fmt.Errorf("getting secret from Secrets Manager: %w", err)
	}

	if output.SecretString == nil {
		return "", errors.New("secret has no string value")
	}

	value := strings.TrimSpace(*output.SecretString)
	if strings.HasPrefix(value, "{") {
		var payload secretPayload
		if err := json.Unmarshal([]byte(value), &payload); err != nil {
			return "", fmt.Errorf("parsing secret JSON: %w", err)
		}
		value = payload.AccessToken
	}

	if value == "" {
		return "", errors.New("secret has no access token")
	}

	return value, nil
}
