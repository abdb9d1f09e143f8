package posting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fundsync/internal/core/images"
	"fundsync/internal/core/record"
	donationPort "fundsync/internal/ports/donation"
	platformPort "fundsync/internal/ports/platform"
	storePort "fundsync/internal/ports/store"

	"go.uber.org/zap"
)

// ErrInvalidRequest درخواست submit ناقص است
var ErrInvalidRequest = errors.New("either an existing fundraiser id or creation fields are required")

// SubmitRequest ورودی ساخت یک پست fundraiser
//
// Exactly one of ExistingFundraiserID / Create must be set: import an
// existing fundraiser, or create a new one upstream first.
type SubmitRequest struct {
	Subreddit            string
	ExistingFundraiserID string
	Create               *donationPort.CreateRequest
	Nonprofit            *donationPort.Nonprofit
	Form                 record.FormFields
}

// Service is the creation-time flow: create/import the fundraiser, create the
// platform post, seed the cache record and the subscribed index.
type Service struct {
	Store    storePort.CacheStore
	Donation donationPort.Client
	Platform platformPort.PostService
	Images   *images.Resolver
	Logger   *zap.Logger
}

func NewService(
	store storePort.CacheStore,
	donation donationPort.Client,
	platform platformPort.PostService,
	resolver *images.Resolver,
	logger *zap.Logger,
) *Service {
	return &Service{
		Store:    store,
		Donation: donation,
		Platform: platform,
		Images:   resolver,
		Logger:   logger,
	}
}

// SubmitPost runs the whole creation flow. On a cache-write failure it removes
// the just-created post again so no orphaned post is left without data.
func (s *Service) SubmitPost(ctx context.Context, req *SubmitRequest) (*platformPort.Post, error) {
	fundraiser, created, err := s.resolveFundraiser(ctx, req)
	if err != nil {
		return nil, err
	}

	rec := record.New()
	if req.Nonprofit != nil {
		info := record.NonprofitInfo{
			ID:                req.Nonprofit.ID,
			Name:              req.Nonprofit.Name,
			Description:       req.Nonprofit.Description,
			EIN:               req.Nonprofit.EIN,
			ProfileURL:        req.Nonprofit.ProfileURL,
			LogoCloudinaryID:  req.Nonprofit.LogoCloudinaryID,
			CoverImageCloudID: req.Nonprofit.CoverImageCloudID,
		}
		if req.Nonprofit.LogoCloudinaryID != "" {
			if logoURL, err := s.Images.GetLogoURL(ctx, req.Nonprofit.LogoCloudinaryID); err != nil {
				s.Logger.Warn("⚠️ Could not resolve nonprofit logo", zap.Error(err))
			} else {
				info.LogoRedditURL = logoURL
			}
		}
		if err := rec.Initialize(record.SlotNonprofitInfo, info); err != nil {
			return nil, err
		}
	}

	fundraiserInfo := record.FundraiserInfo{
		ID:                     fundraiser.ID,
		NonprofitID:            fundraiser.NonprofitID,
		Title:                  fundraiser.Title,
		Description:            fundraiser.Description,
		StartDate:              fundraiser.StartDate,
		EndDate:                fundraiser.EndDate,
		CoverImageCloudinaryID: fundraiser.CoverImageCloudinaryID,
		PinnedAt:               fundraiser.PinnedAt,
		Active:                 fundraiser.Active,
	}
	if fundraiser.CoverImageCloudinaryID != "" {
		coverURL, err := s.Images.GetImageURL(ctx, fundraiser.CoverImageCloudinaryID, images.LargestTier())
		if err != nil {
			s.Logger.Warn("⚠️ Could not resolve cover image", zap.Error(err))
		} else {
			fundraiserInfo.CoverImageRedditURL = coverURL
		}
	}
	if err := rec.Initialize(record.SlotFundraiserInfo, fundraiserInfo); err != nil {
		return nil, err
	}

	details := record.FundraiserDetails{}
	if fetched, err := s.Donation.GetRaisedDetails(ctx, fundraiser.ID); err != nil {
		// jobs will fill the numbers in on their next tick
		s.Logger.Warn("⚠️ Could not fetch raised details at creation time", zap.Error(err))
	} else {
		details = record.FundraiserDetails{
			Raised:     fetched.Raised,
			GoalAmount: fetched.GoalAmount,
			Supporters: fetched.Supporters,
			Currency:   fetched.Currency,
			GoalType:   fetched.GoalType,
		}
	}
	if err := rec.Initialize(record.SlotFundraiserDetails, details); err != nil {
		return nil, err
	}
	if err := rec.Initialize(record.SlotFormFields, req.Form); err != nil {
		return nil, err
	}
	if created != nil {
		if err := rec.Initialize(record.SlotCreationResponse, record.CreationResponse{
			ID:        created.ID,
			Title:     created.Title,
			StartDate: created.StartDate,
			EndDate:   created.EndDate,
			SelfLink:  created.SelfLink,
			WebLink:   created.WebLink,
		}); err != nil {
			return nil, err
		}
	}

	post, err := s.Platform.CreatePost(ctx, fundraiser.Title, req.Subreddit, fundraiser.Description)
	if err != nil {
		return nil, fmt.Errorf("create platform post: %w", err)
	}

	if err := s.Store.Set(ctx, post.ID, rec); err != nil {
		s.Logger.Error("❌ Cache write failed at creation time, removing post",
			zap.String("postID", post.ID), zap.Error(err))
		s.cleanup(ctx, post.ID)
		return nil, fmt.Errorf("save fundraiser data: %w", err)
	}

	var endDate time.Time
	if ts, ok := record.ParseDate(fundraiser.EndDate); ok {
		endDate = ts
	}
	if err := s.Store.AddOrUpdate(ctx, post.ID, endDate); err != nil {
		s.Logger.Error("❌ Index write failed at creation time, removing post",
			zap.String("postID", post.ID), zap.Error(err))
		s.cleanup(ctx, post.ID)
		return nil, fmt.Errorf("save fundraiser data: %w", err)
	}

	s.Logger.Info("✅ Fundraiser post created",
		zap.String("postID", post.ID),
		zap.String("fundraiserID", fundraiser.ID))
	return post, nil
}

// OnPostDeleted cleans up the record and the index entry for a deleted post.
func (s *Service) OnPostDeleted(ctx context.Context, postID string) error {
	return s.Store.Remove(ctx, postID)
}

func (s *Service) resolveFundraiser(ctx context.Context, req *SubmitRequest) (*donationPort.Fundraiser, *donationPort.Created, error) {
	switch {
	case req.ExistingFundraiserID != "":
		fundraiser, err := s.Donation.GetFundraiser(ctx, req.ExistingFundraiserID)
		if err != nil {
			return nil, nil, fmt.Errorf("import fundraiser: %w", err)
		}
		return fundraiser, nil, nil

	case req.Create != nil:
		created, err := s.Donation.CreateFundraiser(ctx, req.Create)
		if err != nil {
			return nil, nil, fmt.Errorf("create fundraiser upstream: %w", err)
		}
		return &donationPort.Fundraiser{
			ID:          created.ID,
			NonprofitID: req.Create.NonprofitID,
			Title:       created.Title,
			Description: req.Create.Description,
			StartDate:   created.StartDate,
			EndDate:     created.EndDate,
			Active:      true,
		}, created, nil

	default:
		return nil, nil, ErrInvalidRequest
	}
}

// compensating cleanup: the post and any partial cache/index entries go away
// together.
func (s *Service) cleanup(ctx context.Context, postID string) {
	if err := s.Platform.RemovePost(ctx, postID, false); err != nil {
		s.Logger.Error("❌ Could not remove orphaned post", zap.String("postID", postID), zap.Error(err))
	}
	if err := s.Store.Remove(ctx, postID); err != nil {
		s.Logger.Error("❌ Could not remove partial cache entries", zap.String("postID", postID), zap.Error(err))
	}
}
