package http_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/akihito104/yttt-sub001/domain/dto"
	"github.com/akihito104/yttt-sub001/domain/model"
)

type MockSyncUseCase struct {
	mock.Mock
}

func (m *MockSyncUseCase) Initialize(ctx context.Context, list string) (dto.InitializeAction, error) {
	args := m.Called(ctx, list)
	return args.Get(0).(dto.InitializeAction), args.Error(1)
}

func (m *MockSyncUseCase) SyncSubscriptions(ctx context.Context, loadType dto.LoadType, all bool) (*dto.SyncResult, error) {
	args := m.Called(ctx, loadType, all)
	res, _ := args.Get(0).(*dto.SyncResult)
	return res, args.Error(1)
}

func (m *MockSyncUseCase) SyncFollowedStreams(ctx context.Context, loadType dto.LoadType, all bool) (*dto.SyncResult, error) {
	args := m.Called(ctx, loadType, all)
	res, _ := args.Get(0).(*dto.SyncResult)
	return res, args.Error(1)
}

func (m *MockSyncUseCase) SyncFollowings(ctx context.Context) (*dto.SyncResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*dto.SyncResult)
	return res, args.Error(1)
}

func (m *MockSyncUseCase) SyncPlaylist(ctx context.Context, playlistID model.PlatformID) (*dto.PlaylistSyncResult, error) {
	args := m.Called(ctx, playlistID)
	res, _ := args.Get(0).(*dto.PlaylistSyncResult)
	return res, args.Error(1)
}

func (m *MockSyncUseCase) UploadPlaylists(ctx context.Context) ([]model.PlatformID, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]model.PlatformID)
	return res, args.Error(1)
}

func (m *MockSyncUseCase) ResolveChannels(ctx context.Context, ids []model.PlatformID) ([]model.Channel, error) {
	args := m.Called(ctx, ids)
	res, _ := args.Get(0).([]model.Channel)
	return res, args.Error(1)
}

func (m *MockSyncUseCase) ChannelSections(ctx context.Context, channelID model.PlatformID) ([]model.ChannelSection, error) {
	args := m.Called(ctx, channelID)
	res, _ := args.Get(0).([]model.ChannelSection)
	return res, args.Error(1)
}

func (m *MockSyncUseCase) Cleanup(ctx context.Context) (*dto.CleanupResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*dto.CleanupResult)
	return res, args.Error(1)
}

type MockTimelineUseCase struct {
	mock.Mock
}

func (m *MockTimelineUseCase) Timeline(ctx context.Context) (*dto.TimelineResponse, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*dto.TimelineResponse)
	return res, args.Error(1)
}
