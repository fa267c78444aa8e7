package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crossposthq/crosspost/internal/models"
	"github.com/crossposthq/crosspost/internal/repository"
	"github.com/crossposthq/crosspost/pkg/utils"
)

const maxApiKeys = 5

type ApiKeyService interface {
	// Create returns the plaintext key. It is shown once; only its hash is
	// stored.
	Create(ctx context.Context, userID int64) (string, error)
	List(ctx context.Context, userID int64) ([]*models.ApiKey, error)
	GetUserID(ctx context.Context, apiKey string) (int64, error)
	RemoveAPIKey(ctx context.Context, userID, keyID int64) error
}

type apiKeyService struct {
	k repository.ApiKeyRepository
}

func NewApiKeyService(k repository.ApiKeyRepository) ApiKeyService {
	return &apiKeyService{
		k: k,
	}
}

func (s *apiKeyService) Create(ctx context.Context, userID int64) (string, error) {
	keys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(keys) >= maxApiKeys {
		err = fmt.Errorf("%w: at most %d API keys can exist at once", ErrInvalidInput, maxApiKeys)
		slog.Info(err.Error())
		return "", err
	}

	key, err := utils.GenerateRandomKey(24)
	if err != nil {
		slog.Info(err.Error())
		return "", errors.New("failed to generate API key")
	}

	prefix := key
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}

	apiKey := &models.ApiKey{
		UserID:  userID,
		KeyHash: utils.HashKey(key),
		Prefix:  prefix,
	}
	if _, err := s.k.Create(ctx, apiKey); err != nil {
		return "", errors.New("failed to save API key")
	}
	return key, nil
}

func (s *apiKeyService) GetUserID(ctx context.Context, apiKey string) (int64, error) {
	userID, err := s.k.GetUserIDByHash(ctx, utils.HashKey(apiKey))
	if err != nil {
		return 0, err
	}
	if userID == 0 {
		return 0, errors.New("API key does not exist")
	}
	return userID, nil
}

func (s *apiKeyService) List(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	apiKeys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errors.New("failed to list API keys")
	}
	return apiKeys, nil
}

func (s *apiKeyService) RemoveAPIKey(ctx context.Context, userID, keyID int64) error {
	if userID == 0 || keyID == 0 {
		err := errors.New("invalid key id")
		slog.Info(err.Error())
		return err
	}
	return s.k.Remove(ctx, keyID, userID)
}
