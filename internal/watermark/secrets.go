package watermark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretsAPI is the subset of the Secrets Manager client used here.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
}

// SecretsManagerStore keeps the watermark in a secret named after the
// destination bucket, holding {"last_update": "<timestamp>"}.
type SecretsManagerStore struct {
	log      *slog.Logger
	client   SecretsAPI
	secretID string
}

// SecretID returns the secret name used for a bucket.
func SecretID(prefix, bucket string) string {
	return prefix + "last-update-" + bucket
}

func NewSecretsManagerStore(log *slog.Logger, client SecretsAPI, prefix, bucket string) *SecretsManagerStore {
	return &SecretsManagerStore{log: log, client: client, secretID: SecretID(prefix, bucket)}
}

func (s *SecretsManagerStore) Load(ctx context.Context) (string, bool, error) {
	s.log.Info("retrieving watermark", "secret", s.secretID)
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	})
	if err != nil {
		var nf *types.ResourceNotFoundException
		if errors.As(err, &nf) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read secret %s: %w", s.secretID, err)
	}

	var p payload
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &p); err != nil {
		return "", false, fmt.Errorf("failed to parse secret %s: %w", s.secretID, err)
	}
	return p.LastUpdate, p.LastUpdate != "", nil
}

func (s *SecretsManagerStore) Save(ctx context.Context, ts string) error {
	body, err := json.Marshal(payload{LastUpdate: ts})
	if err != nil {
		return err
	}

	s.log.Info("updating watermark", "secret", s.secretID, "last_update", ts)
	_, err = s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(s.secretID),
		SecretString: aws.String(string(body)),
	})
	var nf *types.ResourceNotFoundException
	if errors.As(err, &nf) {
		_, err = s.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
			Name:         aws.String(s.secretID),
			SecretString: aws.String(string(body)),
		})
	}
	if err != nil {
		return fmt.Errorf("failed to write secret %s: %w", s.secretID, err)
	}
	return nil
}
