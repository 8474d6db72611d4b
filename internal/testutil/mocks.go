package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reccord/internal/models"
	"reccord/internal/services"
)

// MockCredentialRepository is a mock implementation of CredentialRepository for testing
type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) Find(ctx context.Context, userID string, service models.Service) (*models.SyncCredential, error) {
	args := m.Called(ctx, userID, service)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncCredential), args.Error(1)
}

func (m *MockCredentialRepository) Save(ctx context.Context, credential *models.SyncCredential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

func (m *MockCredentialRepository) Delete(ctx context.Context, userID string, service models.Service) error {
	args := m.Called(ctx, userID, service)
	return args.Error(0)
}

// MockSyncConfigRepository is a mock implementation of SyncConfigRepository for testing
type MockSyncConfigRepository struct {
	mock.Mock
}

func (m *MockSyncConfigRepository) FindByList(ctx context.Context, listID string) (*models.SyncConfig, error) {
	args := m.Called(ctx, listID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncConfig), args.Error(1)
}

func (m *MockSyncConfigRepository) FindDue(ctx context.Context, mode models.SyncMode, cutoff time.Time) ([]*models.SyncConfig, error) {
	args := m.Called(ctx, mode, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SyncConfig), args.Error(1)
}

func (m *MockSyncConfigRepository) Save(ctx context.Context, config *models.SyncConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func (m *MockSyncConfigRepository) UpdateWatermark(ctx context.Context, id primitive.ObjectID, ts time.Time) error {
	args := m.Called(ctx, id, ts)
	return args.Error(0)
}

// MockListItemRepository is a mock implementation of ListItemRepository for testing
type MockListItemRepository struct {
	mock.Mock
}

func (m *MockListItemRepository) FindByList(ctx context.Context, listID string) ([]*models.ListItem, error) {
	args := m.Called(ctx, listID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ListItem), args.Error(1)
}

func (m *MockListItemRepository) Replace(ctx context.Context, listID string, items []*models.ListItem) error {
	args := m.Called(ctx, listID, items)
	return args.Error(0)
}

// MockTrackFetcher is a mock implementation of TrackFetcher for testing
type MockTrackFetcher struct {
	mock.Mock
	ServiceTag models.Service
}

func (m *MockTrackFetcher) Service() models.Service {
	return m.ServiceTag
}

func (m *MockTrackFetcher) TopTracks(ctx context.Context, token services.AccessToken, window models.TimeWindow) ([]services.ProviderTrack, error) {
	args := m.Called(ctx, token, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.ProviderTrack), args.Error(1)
}

func (m *MockTrackFetcher) PlaylistTracks(ctx context.Context, token services.AccessToken, playlistURL string) ([]services.PlaylistTrack, error) {
	args := m.Called(ctx, token, playlistURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.PlaylistTrack), args.Error(1)
}

// MockTokenManager is a mock implementation of tokens.Manager for testing
type MockTokenManager struct {
	mock.Mock
	ServiceTag models.Service
}

func (m *MockTokenManager) Service() models.Service {
	return m.ServiceTag
}

func (m *MockTokenManager) EnsureValid(ctx context.Context, userID string) (services.AccessToken, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(services.AccessToken), args.Error(1)
}
