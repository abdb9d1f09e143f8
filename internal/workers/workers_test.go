package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fundsync/internal/core/images"
	"fundsync/internal/core/record"
	donationPort "fundsync/internal/ports/donation"
	platformPort "fundsync/internal/ports/platform"
	realtimePort "fundsync/internal/ports/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- fakes ---

type fakeStore struct {
	mu           sync.Mutex
	records      map[string]*record.CacheRecord
	index        []string
	setCalls     int
	setErr       error
	removed      []string
	unsubscribed []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*record.CacheRecord)}
}

func (f *fakeStore) Get(ctx context.Context, postID string) (*record.CacheRecord, error) {
	return f.records[postID], nil
}

func (f *fakeStore) Set(ctx context.Context, postID string, rec *record.CacheRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.records[postID] = rec
	f.setCalls++
	return nil
}

func (f *fakeStore) Remove(ctx context.Context, postID string) error {
	delete(f.records, postID)
	f.removed = append(f.removed, postID)
	f.dropFromIndex(postID)
	return nil
}

func (f *fakeStore) RemoveFromIndex(ctx context.Context, postID string) error {
	f.unsubscribed = append(f.unsubscribed, postID)
	f.dropFromIndex(postID)
	return nil
}

func (f *fakeStore) dropFromIndex(postID string) {
	out := f.index[:0]
	for _, id := range f.index {
		if id != postID {
			out = append(out, id)
		}
	}
	f.index = out
}

func (f *fakeStore) ListSubscribed(ctx context.Context) ([]string, error) {
	return append([]string(nil), f.index...), nil
}

func (f *fakeStore) AddOrUpdate(ctx context.Context, postID string, endDate time.Time) error {
	f.index = append(f.index, postID)
	return nil
}

type fakeDonation struct {
	fundraisers   map[string]*donationPort.Fundraiser
	fundraiserErr error
	details       map[string]*donationPort.RaisedDetails
	detailsErr    map[string]error
	detailCalls   int
}

func newFakeDonation() *fakeDonation {
	return &fakeDonation{
		fundraisers: make(map[string]*donationPort.Fundraiser),
		details:     make(map[string]*donationPort.RaisedDetails),
		detailsErr:  make(map[string]error),
	}
}

func (f *fakeDonation) SearchNonprofits(ctx context.Context, query string) ([]*donationPort.Nonprofit, error) {
	return nil, nil
}

func (f *fakeDonation) GetFundraiser(ctx context.Context, id string) (*donationPort.Fundraiser, error) {
	if f.fundraiserErr != nil {
		return nil, f.fundraiserErr
	}
	fr, ok := f.fundraisers[id]
	if !ok {
		return nil, donationPort.ErrNotFound
	}
	return fr, nil
}

func (f *fakeDonation) GetRaisedDetails(ctx context.Context, id string) (*donationPort.RaisedDetails, error) {
	f.detailCalls++
	if err, ok := f.detailsErr[id]; ok {
		return nil, err
	}
	d, ok := f.details[id]
	if !ok {
		return nil, donationPort.ErrNotFound
	}
	return d, nil
}

func (f *fakeDonation) CreateFundraiser(ctx context.Context, req *donationPort.CreateRequest) (*donationPort.Created, error) {
	return nil, errors.New("not implemented")
}

type modmail struct {
	subreddit, subject, body string
}

type fakePlatform struct {
	posts    map[string]*platformPort.Post
	messages []modmail
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{posts: make(map[string]*platformPort.Post)}
}

func (f *fakePlatform) CreatePost(ctx context.Context, title, subreddit, previewText string) (*platformPort.Post, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePlatform) GetPostByID(ctx context.Context, id string) (*platformPort.Post, error) {
	return f.posts[id], nil
}

func (f *fakePlatform) RemovePost(ctx context.Context, id string, isSpam bool) error {
	delete(f.posts, id)
	return nil
}

func (f *fakePlatform) SendModeratorMessage(ctx context.Context, subreddit, subject, body string) error {
	f.messages = append(f.messages, modmail{subreddit, subject, body})
	return nil
}

type published struct {
	channel string
	payload interface{}
}

type fakePublisher struct {
	events []published
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, payload interface{}) error {
	f.events = append(f.events, published{channel, payload})
	return nil
}

type fakeKV struct {
	data     map[string]string
	counters map[string]int64
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string), counters: make(map[string]int64)}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) { return f.data[key], nil }
func (f *fakeKV) Set(ctx context.Context, key, value string) error {
	f.data[key] = value
	return nil
}
func (f *fakeKV) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }
func (f *fakeKV) IncrBy(ctx context.Context, key string, n int64) (int64, error) {
	f.counters[key] += n
	return f.counters[key], nil
}
func (f *fakeKV) Del(ctx context.Context, key string) error {
	delete(f.data, key)
	delete(f.counters, key)
	return nil
}

type fakeMedia struct {
	hosted  string
	err     error
	uploads int
}

func (f *fakeMedia) UploadFromURL(ctx context.Context, url string) (*platformPort.Asset, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.uploads++
	return &platformPort.Asset{HostedURL: f.hosted}, nil
}

type fakeProber struct {
	valid bool
	err   error
}

func (f *fakeProber) Valid(ctx context.Context, url string) (bool, error) {
	return f.valid, f.err
}

// --- helpers ---

func seedRecord(t *testing.T, s *fakeStore, postID string, info record.FundraiserInfo, details record.FundraiserDetails) *record.CacheRecord {
	t.Helper()
	rec := record.New()
	require.NoError(t, rec.Initialize(record.SlotNonprofitInfo, record.NonprofitInfo{ID: "n1", Name: "Bee Fund"}))
	require.NoError(t, rec.Initialize(record.SlotFundraiserInfo, info))
	require.NoError(t, rec.Initialize(record.SlotFundraiserDetails, details))
	s.records[postID] = rec
	s.index = append(s.index, postID)
	return rec
}

// --- details worker ---

func TestDetailsWorkerPublishesFullTuple(t *testing.T) {
	store := newFakeStore()
	seedRecord(t, store, "p1",
		record.FundraiserInfo{ID: "f1", Active: true},
		record.FundraiserDetails{Raised: 100, GoalAmount: 10000, Supporters: 50, GoalType: "fixed"})

	platform := newFakePlatform()
	platform.posts["p1"] = &platformPort.Post{ID: "p1"}

	don := newFakeDonation()
	don.details["f1"] = &donationPort.RaisedDetails{Raised: 120, GoalAmount: 10000, Supporters: 50, GoalType: "fixed"}

	pub := &fakePublisher{}
	w := NewDetailsWorker(store, don, platform, pub, newFakeKV(), zap.NewNop())
	w.Run(context.Background())

	assert.Equal(t, 1, store.setCalls)
	require.Len(t, pub.events, 1)
	event, ok := pub.events[0].payload.(realtimePort.DetailsEvent)
	require.True(t, ok)
	assert.Equal(t, "p1", event.PostID)
	// the event carries the complete tuple, not just the changed field
	assert.Equal(t, int64(120), event.UpdatedDetails.Raised)
	assert.Equal(t, int64(10000), event.UpdatedDetails.GoalAmount)
	assert.Equal(t, int64(50), event.UpdatedDetails.Supporters)
	assert.Equal(t, "fixed", event.UpdatedDetails.GoalType)

	details, err := store.records["p1"].FundraiserDetails()
	require.NoError(t, err)
	assert.Equal(t, int64(120), details.Raised)
}

func TestDetailsWorkerUnchangedIsNoOp(t *testing.T) {
	store := newFakeStore()
	seedRecord(t, store, "p1",
		record.FundraiserInfo{ID: "f1", Active: true},
		record.FundraiserDetails{Raised: 100, GoalAmount: 10000, Supporters: 50})

	platform := newFakePlatform()
	platform.posts["p1"] = &platformPort.Post{ID: "p1"}

	don := newFakeDonation()
	don.details["f1"] = &donationPort.RaisedDetails{Raised: 100, GoalAmount: 10000, Supporters: 50}

	pub := &fakePublisher{}
	w := NewDetailsWorker(store, don, platform, pub, newFakeKV(), zap.NewNop())
	w.Run(context.Background())

	assert.Zero(t, store.setCalls, "no write for an unchanged snapshot")
	assert.Empty(t, pub.events)
}

func TestDetailsWorkerNotFoundUnsubscribesButKeepsRecord(t *testing.T) {
	store := newFakeStore()
	seedRecord(t, store, "p1",
		record.FundraiserInfo{ID: "gone", Active: true},
		record.FundraiserDetails{Raised: 100})

	platform := newFakePlatform()
	platform.posts["p1"] = &platformPort.Post{ID: "p1"}

	w := NewDetailsWorker(store, newFakeDonation(), platform, &fakePublisher{}, newFakeKV(), zap.NewNop())
	w.Run(context.Background())

	assert.Equal(t, []string{"p1"}, store.unsubscribed)
	assert.Empty(t, store.removed)
	assert.NotNil(t, store.records["p1"], "record kept for manual inspection")
}

func TestDetailsWorkerDeletedPostIsCleanedUp(t *testing.T) {
	store := newFakeStore()
	seedRecord(t, store, "p1",
		record.FundraiserInfo{ID: "f1", Active: true},
		record.FundraiserDetails{Raised: 100})

	// no post on the platform
	w := NewDetailsWorker(store, newFakeDonation(), newFakePlatform(), &fakePublisher{}, newFakeKV(), zap.NewNop())
	w.Run(context.Background())

	assert.Equal(t, []string{"p1"}, store.removed)
	assert.Nil(t, store.records["p1"])
}

func TestDetailsWorkerExpiredIsFrozen(t *testing.T) {
	store := newFakeStore()
	seedRecord(t, store, "p1",
		record.FundraiserInfo{ID: "f1", Active: true, EndDate: "2020-01-01"},
		record.FundraiserDetails{Raised: 100})

	platform := newFakePlatform()
	platform.posts["p1"] = &platformPort.Post{ID: "p1"}

	don := newFakeDonation()
	don.details["f1"] = &donationPort.RaisedDetails{Raised: 999}

	pub := &fakePublisher{}
	w := NewDetailsWorker(store, don, platform, pub, newFakeKV(), zap.NewNop())
	w.Run(context.Background())

	assert.Zero(t, don.detailCalls, "expired fundraisers are not fetched")
	assert.Zero(t, store.setCalls)
	assert.Empty(t, pub.events)
}

func TestDetailsWorkerIsolatesPerPostFailures(t *testing.T) {
	store := newFakeStore()
	seedRecord(t, store, "p1",
		record.FundraiserInfo{ID: "f1", Active: true},
		record.FundraiserDetails{Raised: 100})
	seedRecord(t, store, "p2",
		record.FundraiserInfo{ID: "f2", Active: true},
		record.FundraiserDetails{Raised: 10})

	platform := newFakePlatform()
	platform.posts["p1"] = &platformPort.Post{ID: "p1"}
	platform.posts["p2"] = &platformPort.Post{ID: "p2"}

	don := newFakeDonation()
	don.detailsErr["f1"] = errors.New("upstream timeout")
	don.details["f2"] = &donationPort.RaisedDetails{Raised: 25}

	pub := &fakePublisher{}
	w := NewDetailsWorker(store, don, platform, pub, newFakeKV(), zap.NewNop())
	w.Run(context.Background())

	// p1 failed transiently, p2 was still processed
	require.Len(t, pub.events, 1)
	assert.Equal(t, "p2", pub.events[0].payload.(realtimePort.DetailsEvent).PostID)
	assert.Empty(t, store.unsubscribed, "transient failure never unsubscribes")
}

func TestDetailsWorkerMissingKeyAbortsTick(t *testing.T) {
	store := newFakeStore()
	seedRecord(t, store, "p1",
		record.FundraiserInfo{ID: "f1", Active: true},
		record.FundraiserDetails{Raised: 100})
	seedRecord(t, store, "p2",
		record.FundraiserInfo{ID: "f2", Active: true},
		record.FundraiserDetails{Raised: 10})

	platform := newFakePlatform()
	platform.posts["p1"] = &platformPort.Post{ID: "p1"}
	platform.posts["p2"] = &platformPort.Post{ID: "p2"}

	don := newFakeDonation()
	don.detailsErr["f1"] = donationPort.ErrMissingAPIKey
	don.details["f2"] = &donationPort.RaisedDetails{Raised: 25}

	w := NewDetailsWorker(store, don, platform, &fakePublisher{}, newFakeKV(), zap.NewNop())
	w.Run(context.Background())

	assert.Equal(t, 1, don.detailCalls, "remaining posts are not attempted without a key")
}

// --- description worker ---

func TestDescriptionWorkerUpdatesOnChange(t *testing.T) {
	store := newFakeStore()
	seedRecord(t, store, "p1",
		record.FundraiserInfo{ID: "f1", Description: "old", Active: true},
		record.FundraiserDetails{})

	don := newFakeDonation()
	don.fundraisers["f1"] = &donationPort.Fundraiser{ID: "f1", Description: "new and improved"}

	pub := &fakePublisher{}
	w := NewDescriptionWorker(store, don, pub, newFakeKV(), zap.NewNop())
	w.Run(context.Background())

	assert.Equal(t, 1, store.setCalls)
	require.Len(t, pub.events, 1)
	event := pub.events[0].payload.(realtimePort.DescriptionEvent)
	assert.Equal(t, "p1", event.PostID)
	assert.Equal(t, "new and improved", event.UpdatedDescription.Description)

	info, err := store.records["p1"].FundraiserInfo()
	require.NoError(t, err)
	assert.Equal(t, "new and improved", info.Description)
}

func TestDescriptionWorkerStrictComparison(t *testing.T) {
	store := newFakeStore()
	seedRecord(t, store, "p1",
		record.FundraiserInfo{ID: "f1", Description: "same", Active: true},
		record.FundraiserDetails{})

	don := newFakeDonation()
	don.fundraisers["f1"] = &donationPort.Fundraiser{ID: "f1", Description: "same"}

	pub := &fakePublisher{}
	w := NewDescriptionWorker(store, don, pub, newFakeKV(), zap.NewNop())
	w.Run(context.Background())

	assert.Zero(t, store.setCalls)
	assert.Empty(t, pub.events)
}

func TestDescriptionWorkerSkipsMissingRecord(t *testing.T) {
	store := newFakeStore()
	store.index = []string{"ghost"}

	w := NewDescriptionWorker(store, newFakeDonation(), &fakePublisher{}, newFakeKV(), zap.NewNop())
	w.Run(context.Background()) // must not panic or remove anything

	assert.Empty(t, store.removed)
	assert.Empty(t, store.unsubscribed)
}

// --- cover image worker ---

func newCoverWorker(store *fakeStore, don *fakeDonation, media *fakeMedia, prober Prober, pub *fakePublisher) *CoverImageWorker {
	resolver := images.NewResolver(newFakeKV(), media, zap.NewNop())
	resolver.Grace = 0
	return NewCoverImageWorker(store, don, resolver, prober, pub, newFakeKV(), zap.NewNop())
}

func TestCoverImageWorkerValidURLNoAction(t *testing.T) {
	store := newFakeStore()
	seedRecord(t, store, "p1",
		record.FundraiserInfo{ID: "f1", Active: true, CoverImageRedditURL: "https://i.redd.it/ok"},
		record.FundraiserDetails{})

	media := &fakeMedia{hosted: "https://i.redd.it/fresh"}
	pub := &fakePublisher{}
	w := newCoverWorker(store, newFakeDonation(), media, &fakeProber{valid: true}, pub)
	w.Run(context.Background())

	assert.Zero(t, store.setCalls)
	assert.Zero(t, media.uploads)
	assert.Empty(t, pub.events)
}

func TestCoverImageWorkerRepairsStaleURL(t *testing.T) {
	store := newFakeStore()
	seedRecord(t, store, "p1",
		record.FundraiserInfo{ID: "f1", Active: true, CoverImageRedditURL: "https://i.redd.it/stale"},
		record.FundraiserDetails{})

	don := newFakeDonation()
	don.fundraisers["f1"] = &donationPort.Fundraiser{ID: "f1", CoverImageCloudinaryID: "cdn123"}

	media := &fakeMedia{hosted: "https://i.redd.it/fresh"}
	pub := &fakePublisher{}
	w := newCoverWorker(store, don, media, &fakeProber{valid: false}, pub)
	w.Run(context.Background())

	assert.Equal(t, 1, store.setCalls)
	require.Len(t, pub.events, 1)
	event := pub.events[0].payload.(realtimePort.CoverImageEvent)
	assert.Equal(t, "p1", event.PostID)
	assert.Equal(t, "https://i.redd.it/fresh", event.UpdatedCoverImage.CoverImageRedditURL)

	info, err := store.records["p1"].FundraiserInfo()
	require.NoError(t, err)
	assert.Equal(t, "https://i.redd.it/fresh", info.CoverImageRedditURL)
}

func TestCoverImageWorkerUploadFailureLeftForNextTick(t *testing.T) {
	store := newFakeStore()
	seedRecord(t, store, "p1",
		record.FundraiserInfo{ID: "f1", Active: true, CoverImageRedditURL: "https://i.redd.it/stale"},
		record.FundraiserDetails{})

	don := newFakeDonation()
	don.fundraisers["f1"] = &donationPort.Fundraiser{ID: "f1", CoverImageCloudinaryID: "cdn123"}

	media := &fakeMedia{err: errors.New("media service down")}
	pub := &fakePublisher{}
	w := newCoverWorker(store, don, media, &fakeProber{valid: false}, pub)
	w.Run(context.Background())

	assert.Zero(t, store.setCalls)
	assert.Empty(t, pub.events)
	assert.Empty(t, store.unsubscribed, "transient upload failure keeps the subscription")
	assert.Equal(t, []string{"p1"}, store.index)
}

func TestCoverImageWorkerNoCachedImageSkips(t *testing.T) {
	store := newFakeStore()
	seedRecord(t, store, "p1",
		record.FundraiserInfo{ID: "f1", Active: true},
		record.FundraiserDetails{})

	media := &fakeMedia{hosted: "https://i.redd.it/fresh"}
	pub := &fakePublisher{}
	w := newCoverWorker(store, newFakeDonation(), media, &fakeProber{valid: false}, pub)
	w.Run(context.Background())

	assert.Zero(t, media.uploads)
	assert.Empty(t, pub.events)
}

// --- summary worker ---

func TestSummaryWorkerSkipsWhenEmpty(t *testing.T) {
	platform := newFakePlatform()
	w := NewSummaryWorker(newFakeStore(), platform, newFakeKV(), "fundraisers", zap.NewNop())
	w.Run(context.Background())

	assert.Empty(t, platform.messages, "empty digest is suppressed, not sent")
}

func TestSummaryWorkerComposesDigest(t *testing.T) {
	store := newFakeStore()
	seedRecord(t, store, "p1",
		record.FundraiserInfo{ID: "f1", Active: true},
		record.FundraiserDetails{Raised: 250})
	seedRecord(t, store, "p2",
		record.FundraiserInfo{ID: "f2", Active: true},
		record.FundraiserDetails{Raised: 75})

	platform := newFakePlatform()
	w := NewSummaryWorker(store, platform, newFakeKV(), "fundraisers", zap.NewNop())
	w.Run(context.Background())

	require.Len(t, platform.messages, 1)
	msg := platform.messages[0]
	assert.Equal(t, "fundraisers", msg.subreddit)
	assert.Contains(t, msg.body, "r/fundraisers")
	assert.Contains(t, msg.body, "post p1 | fundraiser f1 | raised 250")
	assert.Contains(t, msg.body, "post p2 | fundraiser f2 | raised 75")
	assert.Zero(t, store.setCalls, "summary never mutates cache records")
}

func TestSummaryWorkerSkipsBrokenEntries(t *testing.T) {
	store := newFakeStore()
	seedRecord(t, store, "p1",
		record.FundraiserInfo{ID: "f1", Active: true},
		record.FundraiserDetails{Raised: 5})
	store.index = append(store.index, "ghost")

	platform := newFakePlatform()
	w := NewSummaryWorker(store, platform, newFakeKV(), "fundraisers", zap.NewNop())
	w.Run(context.Background())

	require.Len(t, platform.messages, 1)
	assert.NotContains(t, platform.messages[0].body, "ghost")
}
