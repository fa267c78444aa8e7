package service

import (
	"context"
	"fmt"
	"log/slog"

	config "github.com/crossposthq/crosspost/configs"
	"github.com/crossposthq/crosspost/internal/models"
	"github.com/crossposthq/crosspost/internal/provider"
	"github.com/crossposthq/crosspost/internal/repository"
	"github.com/crossposthq/crosspost/pkg/utils"
)

// ProviderResolver turns a user's stored provider configuration into a live
// provider client. Credentials are decrypted here and nowhere else.
type ProviderResolver struct {
	cfg      *config.Config
	configs  repository.ProviderConfigRepository
	registry *provider.Registry
}

func NewProviderResolver(cfg *config.Config, pc repository.ProviderConfigRepository, registry *provider.Registry) *ProviderResolver {
	return &ProviderResolver{cfg: cfg, configs: pc, registry: registry}
}

// Resolve picks the user's configuration for the default variant, falling
// back to any other configuration the user has. Configurations flagged with
// an error status fail fast until credentials are updated.
func (r *ProviderResolver) Resolve(ctx context.Context, userID int64) (provider.Provider, *models.ProviderConfig, error) {
	pcfg, err := r.configs.GetByUserAndVariant(ctx, userID, r.cfg.DefaultProvider)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load provider configuration: %w", err)
	}

	if pcfg == nil {
		list, err := r.configs.ListByUserID(ctx, userID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load provider configuration: %w", err)
		}
		if len(list) > 0 {
			pcfg = list[0]
		}
	}

	if pcfg == nil {
		return nil, nil, &provider.ConfigurationError{
			Variant: r.cfg.DefaultProvider,
			Reason:  "no provider configured for this account",
		}
	}

	if pcfg.Status == models.ProviderConfigStatusError {
		return nil, pcfg, provider.NewError(provider.KindAuthentication,
			"provider configuration is flagged with invalid credentials, update them to resume")
	}

	creds, err := r.decryptCredentials(pcfg)
	if err != nil {
		return nil, pcfg, err
	}

	p, err := r.registry.Resolve(userID, pcfg.Variant, creds)
	if err != nil {
		return nil, pcfg, err
	}
	return p, pcfg, nil
}

func (r *ProviderResolver) decryptCredentials(pcfg *models.ProviderConfig) (provider.Credentials, error) {
	var creds provider.Credentials
	key := []byte(r.cfg.SecretKey)

	if pcfg.APIKey != "" {
		apiKey, err := utils.Decrypt(pcfg.APIKey, key)
		if err != nil {
			return creds, fmt.Errorf("failed to decrypt provider credentials: %w", err)
		}
		creds.APIKey = apiKey
	}
	if pcfg.AccessToken != "" {
		token, err := utils.Decrypt(pcfg.AccessToken, key)
		if err != nil {
			return creds, fmt.Errorf("failed to decrypt provider credentials: %w", err)
		}
		creds.AccessToken = token
	}
	return creds, nil
}

// FlagAuthFailure marks a configuration unusable after the remote service
// rejected its credentials and drops any cached client built from them.
func (r *ProviderResolver) FlagAuthFailure(ctx context.Context, pcfg *models.ProviderConfig) {
	if pcfg == nil {
		return
	}
	if err := r.configs.SetStatus(ctx, pcfg.ID, models.ProviderConfigStatusError); err != nil {
		slog.Info(err.Error())
	}
	r.registry.Invalidate(pcfg.UserID, pcfg.Variant)
}
