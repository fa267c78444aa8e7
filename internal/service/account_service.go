package service

import (
	"context"
	"fmt"

	"github.com/crossposthq/crosspost/internal/models"
	"github.com/crossposthq/crosspost/internal/provider"
	"github.com/crossposthq/crosspost/internal/repository"
	"github.com/crossposthq/crosspost/internal/transfer"
)

type AccountService interface {
	Register(ctx context.Context, userID int64, ar *transfer.AccountRegistration) (*models.SocialAccount, error)
	Get(ctx context.Context, userID, accountID int64) (*models.SocialAccount, error)
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	SetPrimary(ctx context.Context, userID, accountID int64) error
	SyncProfiles(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	TestConnection(ctx context.Context, userID int64) bool
	Remove(ctx context.Context, userID, accountID int64) error
}

type accountService struct {
	accounts repository.SocialAccountRepository
	resolver *ProviderResolver
}

func NewAccountService(accounts repository.SocialAccountRepository, resolver *ProviderResolver) AccountService {
	return &accountService{accounts: accounts, resolver: resolver}
}

func (s *accountService) Register(ctx context.Context, userID int64, ar *transfer.AccountRegistration) (*models.SocialAccount, error) {
	if ar.Platform == "" || ar.ProfileID == "" {
		return nil, fmt.Errorf("%w: platform and profile id are required", ErrInvalidInput)
	}

	account := &models.SocialAccount{
		UserID:      userID,
		Platform:    ar.Platform,
		ProfileID:   ar.ProfileID,
		AccountName: ar.AccountName,
		Handle:      ar.Handle,
		Status:      models.AccountStatusActive,
		IsPrimary:   ar.IsPrimary,
		Metadata:    ar.Metadata,
	}

	id, err := s.accounts.Create(ctx, nil, account)
	if err != nil {
		return nil, fmt.Errorf("failed to register account: %w", err)
	}
	account.ID = id

	if ar.IsPrimary {
		if err := s.accounts.SetPrimary(ctx, userID, id); err != nil {
			return nil, fmt.Errorf("failed to set primary account: %w", err)
		}
	}
	return account, nil
}

func (s *accountService) Get(ctx context.Context, userID, accountID int64) (*models.SocialAccount, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil || account.UserID != userID {
		return nil, ErrNotFound
	}
	return account, nil
}

func (s *accountService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	accounts, err := s.accounts.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (s *accountService) SetPrimary(ctx context.Context, userID, accountID int64) error {
	if _, err := s.Get(ctx, userID, accountID); err != nil {
		return err
	}
	if err := s.accounts.SetPrimary(ctx, userID, accountID); err != nil {
		return fmt.Errorf("failed to set primary account: %w", err)
	}
	return nil
}

// SyncProfiles pulls the profiles connected on the provider side and upserts
// them as local accounts, so targets can be picked without re-entering
// profile ids by hand.
func (s *accountService) SyncProfiles(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	p, pcfg, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	profiles, err := p.ListProfiles(ctx)
	if err != nil {
		if provider.IsAuthentication(err) {
			s.resolver.FlagAuthFailure(ctx, pcfg)
		}
		return nil, fmt.Errorf("failed to list provider profiles: %w", err)
	}

	synced := make([]*models.SocialAccount, 0, len(profiles))
	for _, profile := range profiles {
		status := models.AccountStatusActive
		if !profile.Active {
			status = models.AccountStatusInactive
		}
		account := &models.SocialAccount{
			UserID:      userID,
			Platform:    profile.Platform,
			ProfileID:   profile.ID,
			AccountName: profile.Name,
			Handle:      profile.Username,
			Status:      status,
			Metadata:    profile.Metadata,
		}
		id, err := s.accounts.UpsertFromProfile(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("failed to sync profile %s: %w", profile.ID, err)
		}
		account.ID = id
		synced = append(synced, account)
	}
	return synced, nil
}

func (s *accountService) TestConnection(ctx context.Context, userID int64) bool {
	p, _, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return false
	}
	return p.TestConnection(ctx)
}

func (s *accountService) Remove(ctx context.Context, userID, accountID int64) error {
	if _, err := s.Get(ctx, userID, accountID); err != nil {
		return err
	}
	if err := s.accounts.Remove(ctx, accountID); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}
	return nil
}
