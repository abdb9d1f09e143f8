package donation

import (
	"context"
	"errors"
)

// ErrNotFound means the fundraiser is confirmed gone upstream. Callers must
// distinguish it from transient errors: it removes index entries instead of
// retrying forever.
var ErrNotFound = errors.New("fundraiser not found upstream")

// ErrMissingAPIKey is a configuration error, not a data error.
var ErrMissingAPIKey = errors.New("donation api key missing")

// Nonprofit یک موسسه خیریه در API اهدا
type Nonprofit struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	EIN               string `json:"ein"`
	ProfileURL        string `json:"profileUrl"`
	LogoCloudinaryID  string `json:"logoCloudinaryId"`
	CoverImageCloudID string `json:"coverImageCloudinaryId"`
}

// Fundraiser متادیتای یک fundraiser
type Fundraiser struct {
	ID                     string `json:"id"`
	NonprofitID            string `json:"nonprofitId"`
	Title                  string `json:"title"`
	Description            string `json:"description"`
	StartDate              string `json:"startDate"`
	EndDate                string `json:"endDate"`
	CoverImageCloudinaryID string `json:"coverImageCloudinaryId"`
	PinnedAt               string `json:"pinnedAt"`
	Active                 bool   `json:"active"`
}

// RaisedDetails مقادیر متغیر یک fundraiser
type RaisedDetails struct {
	Raised     int64  `json:"raised"`
	GoalAmount int64  `json:"goalAmount"`
	Supporters int64  `json:"supporters"`
	Currency   string `json:"currency"`
	GoalType   string `json:"goalType"`
}

// CreateRequest بدنه‌ی ساخت fundraiser جدید
type CreateRequest struct {
	NonprofitID   string `json:"nonprofitID"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Goal          int64  `json:"goal"`
	RaisedOffline int64  `json:"raisedOffline"`
	Currency      string `json:"currency"`
}

// Created پاسخ ساخت fundraiser
type Created struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	SelfLink  string `json:"selfLink"`
	WebLink   string `json:"webLink"`
}

// Client پورت برای API پلتفرم اهدا
//
// Read operations return ErrNotFound when the resource is confirmed gone and
// a wrapped transport/parse error for transient failures.
type Client interface {
	SearchNonprofits(ctx context.Context, query string) ([]*Nonprofit, error)
	GetFundraiser(ctx context.Context, id string) (*Fundraiser, error)
	GetRaisedDetails(ctx context.Context, id string) (*RaisedDetails, error)
	CreateFundraiser(ctx context.Context, req *CreateRequest) (*Created, error)
}
