package platform

import "context"

// Post یک پست در پلتفرم اجتماعی
type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subreddit string `json:"subreddit"`
	URL       string `json:"url"`
}

// Asset یک فایل آپلودشده در media storage پلتفرم
type Asset struct {
	HostedURL string `json:"hostedUrl"`
}

// PostService پورت برای سرویس پست پلتفرم
type PostService interface {
	CreatePost(ctx context.Context, title, subreddit, previewText string) (*Post, error)
	// GetPostByID returns nil, nil when the post no longer exists.
	GetPostByID(ctx context.Context, id string) (*Post, error)
	RemovePost(ctx context.Context, id string, isSpam bool) error
	SendModeratorMessage(ctx context.Context, subreddit, subject, body string) error
}

// MediaService پورت برای آپلود فایل از URL
type MediaService interface {
	UploadFromURL(ctx context.Context, url string) (*Asset, error)
}
