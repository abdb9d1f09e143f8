package record

// Typed views over the slot bags. Field names live only here (json tags);
// the bags are produced and consumed through these types.

// NonprofitInfo اطلاعات موسسه خیریه
type NonprofitInfo struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	EIN               string `json:"ein"`
	ProfileURL        string `json:"profileUrl"`
	LogoCloudinaryID  string `json:"logoCloudinaryId"`
	LogoRedditURL     string `json:"logoRedditUrl"`
	CoverImageCloudID string `json:"coverImageCloudinaryId"`
}

// FundraiserInfo اطلاعات خود fundraiser
type FundraiserInfo struct {
	ID                     string `json:"id"`
	NonprofitID            string `json:"nonprofitId"`
	Title                  string `json:"title"`
	Description            string `json:"description"`
	StartDate              string `json:"startDate"`
	EndDate                string `json:"endDate"`
	CoverImageCloudinaryID string `json:"coverImageCloudinaryId"`
	CoverImageRedditURL    string `json:"coverImageRedditUrl"`
	PinnedAt               string `json:"pinnedAt"`
	Active                 bool   `json:"active"`
}

// FundraiserDetails مقادیر متغیر (مبلغ جمع‌شده و ...)
type FundraiserDetails struct {
	Raised     int64  `json:"raised"`
	GoalAmount int64  `json:"goalAmount"`
	Supporters int64  `json:"supporters"`
	Currency   string `json:"currency"`
	GoalType   string `json:"goalType"`
}

// FormFields what the creation flow showed the moderator.
type FormFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// CreationResponse is filled only when the fundraiser was created by this app
// rather than imported.
type CreationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	SelfLink  string `json:"selfLink"`
	WebLink   string `json:"webLink"`
}
