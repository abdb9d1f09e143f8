package workers

import (
	"context"
	"errors"
	"fmt"

	"fundsync/internal/core/record"
	donationPort "fundsync/internal/ports/donation"
	platformPort "fundsync/internal/ports/platform"
	realtimePort "fundsync/internal/ports/realtime"
	storePort "fundsync/internal/ports/store"

	"go.uber.org/zap"
)

// DetailsWorker refreshes raised/goal/supporter numbers and emits one
// realtime event per changed post carrying the full current tuple.
type DetailsWorker struct {
	Store     storePort.CacheStore
	Donation  donationPort.Client
	Platform  platformPort.PostService
	Publisher realtimePort.Publisher
	KV        storePort.KV
	Logger    *zap.Logger
}

func NewDetailsWorker(
	store storePort.CacheStore,
	donation donationPort.Client,
	platform platformPort.PostService,
	publisher realtimePort.Publisher,
	kv storePort.KV,
	logger *zap.Logger,
) *DetailsWorker {
	return &DetailsWorker{
		Store:     store,
		Donation:  donation,
		Platform:  platform,
		Publisher: publisher,
		KV:        kv,
		Logger:    logger,
	}
}

// Run one tick over all subscribed posts.
func (w *DetailsWorker) Run(ctx context.Context) {
	ids, err := w.Store.ListSubscribed(ctx)
	if err != nil {
		w.Logger.Error("❌ Could not list subscribed posts", zap.Error(err))
		return
	}

	for _, postID := range ids {
		if err := w.processPost(ctx, postID); err != nil {
			if errors.Is(err, donationPort.ErrMissingAPIKey) {
				w.Logger.Error("❌ Donation API key missing, aborting tick", zap.Error(err))
				return
			}
			w.Logger.Error("❌ Raised-details refresh failed", zap.String("postID", postID), zap.Error(err))
		}
	}
}

func (w *DetailsWorker) processPost(ctx context.Context, postID string) error {
	rec, err := w.Store.Get(ctx, postID)
	if err != nil {
		return err
	}
	if rec == nil {
		w.Logger.Warn("⚠️ No cache record for subscribed post, skipping", zap.String("postID", postID))
		return nil
	}

	// post gone on the platform: terminal cleanup, not an error
	post, err := w.Platform.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		w.Logger.Info("🧹 Post deleted on platform, removing cache and index entry", zap.String("postID", postID))
		return w.Store.Remove(ctx, postID)
	}

	// expired fundraisers are frozen
	if rec.Status() == record.StatusExpired {
		return nil
	}

	cached, err := rec.FundraiserDetails()
	if err != nil {
		return fmt.Errorf("cached fundraiser details: %w", err)
	}
	info, err := rec.FundraiserInfo()
	if err != nil {
		return fmt.Errorf("cached fundraiser info: %w", err)
	}

	fetched, err := w.Donation.GetRaisedDetails(ctx, info.ID)
	if errors.Is(err, donationPort.ErrNotFound) {
		// fundraiser confirmed gone upstream: drop the index entry, keep the
		// record for manual inspection
		w.Logger.Info("🧹 Fundraiser gone upstream, unsubscribing post", zap.String("postID", postID))
		return w.Store.RemoveFromIndex(ctx, postID)
	}
	if err != nil {
		return err
	}

	changed := false
	if fetched.Raised != cached.Raised {
		if err := rec.SetProp(record.SlotFundraiserDetails, "raised", fetched.Raised); err != nil {
			return err
		}
		changed = true
	}
	if fetched.GoalAmount != cached.GoalAmount {
		if err := rec.SetProp(record.SlotFundraiserDetails, "goalAmount", fetched.GoalAmount); err != nil {
			return err
		}
		changed = true
	}
	if fetched.Supporters != cached.Supporters {
		if err := rec.SetProp(record.SlotFundraiserDetails, "supporters", fetched.Supporters); err != nil {
			return err
		}
		changed = true
	}
	if !changed {
		return nil
	}

	if err := w.Store.Set(ctx, postID, rec); err != nil {
		return fmt.Errorf("persist updated details: %w", err)
	}

	event := realtimePort.DetailsEvent{
		PostID: postID,
		UpdatedDetails: realtimePort.UpdatedDetails{
			Raised:     fetched.Raised,
			GoalAmount: fetched.GoalAmount,
			Supporters: fetched.Supporters,
			GoalType:   fetched.GoalType,
		},
	}
	if err := w.Publisher.Publish(ctx, realtimePort.ChannelFundraiserUpdates, event); err != nil {
		w.Logger.Warn("⚠️ Could not publish details update", zap.String("postID", postID), zap.Error(err))
	}
	if _, err := w.KV.IncrBy(ctx, statsUpdatesKey, 1); err != nil {
		w.Logger.Warn("⚠️ Could not bump update counter", zap.Error(err))
	}

	w.Logger.Info("✅ Raised details updated",
		zap.String("postID", postID),
		zap.Int64("raised", fetched.Raised),
		zap.Int64("supporters", fetched.Supporters))
	return nil
}
