package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	config "github.com/crossposthq/crosspost/configs"
	"github.com/crossposthq/crosspost/internal/models"
	"github.com/crossposthq/crosspost/internal/provider"
	"github.com/crossposthq/crosspost/internal/repository"
	"github.com/crossposthq/crosspost/internal/transfer"
	"github.com/crossposthq/crosspost/pkg/utils"
)

type ProviderConfigService interface {
	Save(ctx context.Context, userID int64, pcc *transfer.ProviderConfigCreation) (*models.ProviderConfig, error)
	List(ctx context.Context, userID int64) ([]*models.ProviderConfig, error)
	Variants(ctx context.Context) []string
	Test(ctx context.Context, userID int64) (bool, error)
	Remove(ctx context.Context, userID, configID int64) error
}

type providerConfigService struct {
	cfg      *config.Config
	configs  repository.ProviderConfigRepository
	registry *provider.Registry
	resolver *ProviderResolver
}

func NewProviderConfigService(cfg *config.Config, pc repository.ProviderConfigRepository, registry *provider.Registry, resolver *ProviderResolver) ProviderConfigService {
	return &providerConfigService{cfg: cfg, configs: pc, registry: registry, resolver: resolver}
}

// Save creates or replaces the user's configuration for a variant.
// Credentials are encrypted at rest; saving new ones clears any error flag
// and evicts cached provider instances built from the old set.
func (s *providerConfigService) Save(ctx context.Context, userID int64, pcc *transfer.ProviderConfigCreation) (*models.ProviderConfig, error) {
	variant := strings.ToLower(strings.TrimSpace(pcc.Variant))
	if variant == "" {
		return nil, fmt.Errorf("%w: variant is required", ErrInvalidInput)
	}
	if !slices.Contains(s.registry.Variants(), variant) {
		return nil, &provider.ConfigurationError{Variant: variant, Reason: "unsupported variant"}
	}
	if pcc.APIKey == "" && pcc.AccessToken == "" {
		return nil, &provider.ConfigurationError{Variant: pcc.Variant, Reason: "credentials are required"}
	}

	key := []byte(s.cfg.SecretKey)
	pcfg := &models.ProviderConfig{
		UserID:  userID,
		Variant: variant,
		Status:  models.ProviderConfigStatusActive,
	}
	if pcc.APIKey != "" {
		enc, err := utils.Encrypt([]byte(pcc.APIKey), key)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt credentials: %w", err)
		}
		pcfg.APIKey = enc
	}
	if pcc.AccessToken != "" {
		enc, err := utils.Encrypt([]byte(pcc.AccessToken), key)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt credentials: %w", err)
		}
		pcfg.AccessToken = enc
	}

	id, err := s.configs.Create(ctx, nil, pcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to save provider configuration: %w", err)
	}
	pcfg.ID = id

	s.registry.Invalidate(userID, variant)
	return pcfg, nil
}

func (s *providerConfigService) List(ctx context.Context, userID int64) ([]*models.ProviderConfig, error) {
	list, err := s.configs.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider configurations: %w", err)
	}
	return list, nil
}

func (s *providerConfigService) Variants(_ context.Context) []string {
	return s.registry.Variants()
}

// Test resolves the user's provider and probes connectivity. A rejected
// credential set flags the configuration.
func (s *providerConfigService) Test(ctx context.Context, userID int64) (bool, error) {
	p, pcfg, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	ok := p.TestConnection(ctx)
	if !ok {
		if _, err := p.Authenticate(ctx); provider.IsAuthentication(err) {
			s.resolver.FlagAuthFailure(ctx, pcfg)
		}
	}
	return ok, nil
}

func (s *providerConfigService) Remove(ctx context.Context, userID, configID int64) error {
	pcfg, err := s.configs.GetByID(ctx, configID)
	if err != nil {
		return fmt.Errorf("failed to load provider configuration: %w", err)
	}
	if pcfg == nil || pcfg.UserID != userID {
		return ErrNotFound
	}
	if err := s.configs.Remove(ctx, configID); err != nil {
		return fmt.Errorf("failed to remove provider configuration: %w", err)
	}
	s.registry.Invalidate(userID, pcfg.Variant)
	return nil
}
