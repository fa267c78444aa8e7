package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crossposthq/crosspost/internal/models"
	"github.com/crossposthq/crosspost/internal/repository"
	"github.com/crossposthq/crosspost/internal/transfer"
)

type CampaignService interface {
	Create(ctx context.Context, userID int64, cc *transfer.CampaignCreation) (*models.Campaign, error)
	Get(ctx context.Context, userID, campaignID int64) (*models.Campaign, error)
	List(ctx context.Context, userID int64, status, campaignType string, limit, offset int) ([]*models.Campaign, error)
	Update(ctx context.Context, userID, campaignID int64, cu *transfer.CampaignUpdate) (*models.Campaign, error)
	Posts(ctx context.Context, userID, campaignID int64) ([]*models.Post, error)
	Remove(ctx context.Context, userID, campaignID int64) error
}

type campaignService struct {
	campaigns repository.CampaignRepository
	posts     repository.PostRepository
}

func NewCampaignService(campaigns repository.CampaignRepository, posts repository.PostRepository) CampaignService {
	return &campaignService{campaigns: campaigns, posts: posts}
}

func (s *campaignService) Create(ctx context.Context, userID int64, cc *transfer.CampaignCreation) (*models.Campaign, error) {
	if cc.Name == "" {
		return nil, fmt.Errorf("%w: campaign name is required", ErrInvalidInput)
	}
	if !cc.EndDate.IsZero() && cc.EndDate.Before(cc.StartDate) {
		return nil, fmt.Errorf("%w: campaign end date precedes start date", ErrInvalidInput)
	}

	status := cc.Status
	if status == "" {
		status = models.CampaignStatusDraft
	}

	campaign := &models.Campaign{
		UserID:       userID,
		Name:         cc.Name,
		Description:  cc.Description,
		CampaignType: cc.CampaignType,
		Status:       status,
		StartDate:    cc.StartDate,
		EndDate:      cc.EndDate,
		Platforms:    cc.Platforms,
		Goals:        cc.Goals,
	}

	id, err := s.campaigns.Create(ctx, nil, campaign)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	campaign.ID = id
	return campaign, nil
}

func (s *campaignService) Get(ctx context.Context, userID, campaignID int64) (*models.Campaign, error) {
	return s.ownedCampaign(ctx, userID, campaignID)
}

func (s *campaignService) List(ctx context.Context, userID int64, status, campaignType string, limit, offset int) ([]*models.Campaign, error) {
	campaigns, err := s.campaigns.ListByUserID(ctx, userID, status, campaignType, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

func (s *campaignService) Update(ctx context.Context, userID, campaignID int64, cu *transfer.CampaignUpdate) (*models.Campaign, error) {
	campaign, err := s.ownedCampaign(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}

	if cu.Name != nil {
		campaign.Name = *cu.Name
	}
	if cu.Description != nil {
		campaign.Description = *cu.Description
	}
	if cu.Status != nil {
		campaign.Status = *cu.Status
	}
	if cu.StartDate != nil {
		campaign.StartDate = *cu.StartDate
	}
	if cu.EndDate != nil {
		campaign.EndDate = *cu.EndDate
	}
	if cu.Platforms != nil {
		campaign.Platforms = cu.Platforms
	}
	if cu.Goals != nil {
		campaign.Goals = cu.Goals
	}
	if !campaign.EndDate.IsZero() && campaign.EndDate.Before(campaign.StartDate) {
		return nil, fmt.Errorf("%w: campaign end date precedes start date", ErrInvalidInput)
	}

	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	return campaign, nil
}

func (s *campaignService) Posts(ctx context.Context, userID, campaignID int64) ([]*models.Post, error) {
	if _, err := s.ownedCampaign(ctx, userID, campaignID); err != nil {
		return nil, err
	}
	posts, err := s.posts.ListByCampaignID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign posts: %w", err)
	}
	return posts, nil
}

// Remove deletes the campaign. Posts keep living; their campaign link is
// cleared by the foreign key.
func (s *campaignService) Remove(ctx context.Context, userID, campaignID int64) error {
	if _, err := s.ownedCampaign(ctx, userID, campaignID); err != nil {
		return err
	}
	if err := s.campaigns.Remove(ctx, campaignID); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return nil
}

func (s *campaignService) ownedCampaign(ctx context.Context, userID, campaignID int64) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil || campaign.UserID != userID {
		return nil, ErrNotFound
	}
	return campaign, nil
}
