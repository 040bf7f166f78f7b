package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/hitoshi/arxivnotify/internal/middleware"
	"github.com/hitoshi/arxivnotify/internal/model"
	"github.com/hitoshi/arxivnotify/internal/paper"
	"github.com/hitoshi/arxivnotify/internal/recommend"
	"github.com/hitoshi/arxivnotify/internal/settings"
)

// --- モック ---

type mockPaperService struct {
	fetchFn     func(ctx context.Context, category string) []model.Paper
	updateAllFn func(ctx context.Context) []paper.CategoryCount
}

func (m *mockPaperService) Fetch(ctx context.Context, category string) []model.Paper {
	return m.fetchFn(ctx, category)
}
func (m *mockPaperService) UpdateAll(ctx context.Context) []paper.CategoryCount {
	return m.updateAllFn(ctx)
}

type mockSubscriptionService struct {
	listFn   func(ctx context.Context) ([]model.Subscription, error)
	getFn    func(ctx context.Context, id string) (*model.Subscription, error)
	upsertFn func(ctx context.Context, email string, keywords, categories []string) (*model.Subscription, bool, error)
	deleteFn func(ctx context.Context, id string) (bool, error)
}

func (m *mockSubscriptionService) List(ctx context.Context) ([]model.Subscription, error) {
	return m.listFn(ctx)
}
func (m *mockSubscriptionService) Get(ctx context.Context, id string) (*model.Subscription, error) {
	return m.getFn(ctx, id)
}
func (m *mockSubscriptionService) Upsert(ctx context.Context, email string, keywords, categories []string) (*model.Subscription, bool, error) {
	return m.upsertFn(ctx, email, keywords, categories)
}
func (m *mockSubscriptionService) Delete(ctx context.Context, id string) (bool, error) {
	return m.deleteFn(ctx, id)
}

type mockRecommendService struct {
	refreshFn    func(ctx context.Context, sub model.Subscription, opts recommend.Options) (*recommend.RefreshResult, error)
	refreshAllFn func(ctx context.Context, opts recommend.Options) (*recommend.Summary, error)
	testMatchFn  func(ctx context.Context, keywords []string, useAssisted bool, category string) ([]model.MatchedPaper, error)
}

func (m *mockRecommendService) Refresh(ctx context.Context, sub model.Subscription, opts recommend.Options) (*recommend.RefreshResult, error) {
	return m.refreshFn(ctx, sub, opts)
}
func (m *mockRecommendService) RefreshAll(ctx context.Context, opts recommend.Options) (*recommend.Summary, error) {
	return m.refreshAllFn(ctx, opts)
}
func (m *mockRecommendService) TestMatch(ctx context.Context, keywords []string, useAssisted bool, category string) ([]model.MatchedPaper, error) {
	return m.testMatchFn(ctx, keywords, useAssisted, category)
}

type mockSettingsService struct {
	getFn              func(ctx context.Context) (*settings.View, error)
	saveOpenAIKeyFn    func(ctx context.Context, key string) error
	saveMailSettingsFn func(ctx context.Context, mail model.MailSettings) error
	clearAllFn         func(ctx context.Context) error
}

func (m *mockSettingsService) Get(ctx context.Context) (*settings.View, error) {
	return m.getFn(ctx)
}
func (m *mockSettingsService) SaveOpenAIKey(ctx context.Context, key string) error {
	return m.saveOpenAIKeyFn(ctx, key)
}
func (m *mockSettingsService) SaveMailSettings(ctx context.Context, mail model.MailSettings) error {
	return m.saveMailSettingsFn(ctx, mail)
}
func (m *mockSettingsService) ClearAll(ctx context.Context) error {
	return m.clearAllFn(ctx)
}

type mockWelcomeSender struct {
	calls int
	sent  bool
}

func (m *mockWelcomeSender) SendWelcome(ctx context.Context, settings model.MailSettings, sub model.Subscription) bool {
	m.calls++
	return m.sent
}

type mockCredentialReader struct {
	creds model.Credentials
	err   error
}

func (m *mockCredentialReader) Credentials(ctx context.Context) (model.Credentials, error) {
	return m.creds, m.err
}

// --- ヘルパー ---

type testDeps struct {
	papers    *mockPaperService
	subs      *mockSubscriptionService
	recommend *mockRecommendService
	settings  *mockSettingsService
	welcome   *mockWelcomeSender
	creds     *mockCredentialReader
}

func newTestRouter(t *testing.T, d testDeps) http.Handler {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	if d.welcome == nil {
		d.welcome = &mockWelcomeSender{}
	}
	if d.creds == nil {
		d.creds = &mockCredentialReader{}
	}

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:  1000,
		GeneralBurst: 1000,
		RefreshRate:  1000,
		RefreshBurst: 1000,
	}, logger)
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		Logger:              logger,
		CORSAllowedOrigin:   "http://localhost:3000",
		RateLimiter:         rl,
		MetricsHandler:      http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("# metrics")) }),
		PaperService:        d.papers,
		SubscriptionService: d.subs,
		RecommendService:    d.recommend,
		SettingsService:     d.settings,
		WelcomeSender:       d.welcome,
		Credentials:         d.creds,
	})
}
