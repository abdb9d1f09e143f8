package realtime

import "context"

// ChannelFundraiserUpdates کانال broadcast برای آپدیت‌های زنده
const ChannelFundraiserUpdates = "fundraiser_updates"

// Publisher پورت برای ارسال رویدادهای realtime (fire-and-forget, at-most-once)
type Publisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
}

type UpdatedDescription struct {
	Description string `json:"description"`
}

// DescriptionEvent carries only the new description.
type DescriptionEvent struct {
	PostID             string             `json:"postId"`
	UpdatedDescription UpdatedDescription `json:"updatedDescription"`
}

type UpdatedDetails struct {
	Raised     int64  `json:"raised"`
	GoalAmount int64  `json:"goalAmount"`
	Supporters int64  `json:"supporters"`
	GoalType   string `json:"goalType"`
}

// DetailsEvent carries the complete current tuple, not just the fields that
// changed; downstream consumers render full state.
type DetailsEvent struct {
	PostID         string         `json:"postId"`
	UpdatedDetails UpdatedDetails `json:"updatedDetails"`
}

type UpdatedCoverImage struct {
	CoverImageRedditURL string `json:"coverImageRedditUrl"`
}

// CoverImageEvent carries only the new hosted cover image URL.
type CoverImageEvent struct {
	PostID            string            `json:"postId"`
	UpdatedCoverImage UpdatedCoverImage `json:"updatedCoverImage"`
}
