package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/akihito104/yttt-sub001/domain/dto"
	"github.com/akihito104/yttt-sub001/domain/model"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }

// Mock implementations

type MockYouTube struct {
	mock.Mock
}

func (m *MockYouTube) FetchSubscriptions(ctx context.Context, pageToken string) (*dto.Page[model.Subscription], error) {
	args := m.Called(ctx, pageToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.Page[model.Subscription]), args.Error(1)
}

func (m *MockYouTube) FetchChannels(ctx context.Context, ids []model.PlatformID) (model.Updatable[[]model.Channel], error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(model.Updatable[[]model.Channel]), args.Error(1)
}

func (m *MockYouTube) FetchVideos(ctx context.Context, ids []model.PlatformID) (model.Updatable[[]model.YouTubeVideo], error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(model.Updatable[[]model.YouTubeVideo]), args.Error(1)
}

func (m *MockYouTube) FetchPlaylistItems(ctx context.Context, playlistID model.PlatformID, etag string) (*dto.Page[model.PlaylistItem], error) {
	args := m.Called(ctx, playlistID, etag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.Page[model.PlaylistItem]), args.Error(1)
}

func (m *MockYouTube) FetchChannelSections(ctx context.Context, channelID model.PlatformID) ([]model.ChannelSection, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChannelSection), args.Error(1)
}

type MockTwitch struct {
	mock.Mock
}

func (m *MockTwitch) FetchMe(ctx context.Context) (model.Updatable[model.Channel], error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Updatable[model.Channel]), args.Error(1)
}

func (m *MockTwitch) FetchUsers(ctx context.Context, ids []model.PlatformID) (model.Updatable[[]model.Channel], error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(model.Updatable[[]model.Channel]), args.Error(1)
}

func (m *MockTwitch) FetchFollowings(ctx context.Context, userID model.PlatformID, cursor string) (*dto.Page[model.Following], error) {
	args := m.Called(ctx, userID, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.Page[model.Following]), args.Error(1)
}

func (m *MockTwitch) FetchFollowedStreams(ctx context.Context, userID model.PlatformID, cursor string) (*dto.Page[model.TwitchStream], error) {
	args := m.Called(ctx, userID, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.Page[model.TwitchStream]), args.Error(1)
}

func (m *MockTwitch) FetchSchedule(ctx context.Context, broadcasterID model.PlatformID) (model.Updatable[[]model.TwitchScheduleSegment], error) {
	args := m.Called(ctx, broadcasterID)
	return args.Get(0).(model.Updatable[[]model.TwitchScheduleSegment]), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Publish(ctx context.Context, event dto.SyncEvent) error {
	return m.Called(ctx, event).Error(0)
}

type MockSectionStore struct {
	mock.Mock
}

func (m *MockSectionStore) Get(ctx context.Context, channelID model.PlatformID) ([]model.ChannelSection, bool, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]model.ChannelSection), args.Bool(1), args.Error(2)
}

func (m *MockSectionStore) Set(ctx context.Context, channelID model.PlatformID, sections []model.ChannelSection, ttl time.Duration) error {
	return m.Called(ctx, channelID, sections, ttl).Error(0)
}

func (m *MockSectionStore) Invalidate(ctx context.Context, channelIDs ...model.PlatformID) error {
	return m.Called(ctx, channelIDs).Error(0)
}

// In-memory stores

type memEntityStore[T model.Entity] struct {
	mu      sync.Mutex
	rows    map[model.PlatformID]model.Updatable[T]
	upserts int
	findErr error
}

func newMemEntityStore[T model.Entity]() *memEntityStore[T] {
	return &memEntityStore[T]{rows: map[model.PlatformID]model.Updatable[T]{}}
}

func (s *memEntityStore[T]) Find(_ context.Context, ids []model.PlatformID) ([]model.Updatable[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []model.Updatable[T]
	for _, id := range ids {
		if row, ok := s.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *memEntityStore[T]) Upsert(_ context.Context, items []T, cc model.CacheControl) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	for _, item := range items {
		s.rows[item.EntityID()] = model.NewUpdatable(item, cc)
	}
	return nil
}

func (s *memEntityStore[T]) Remove(_ context.Context, ids []model.PlatformID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.rows, id)
	}
	return nil
}

func (s *memEntityStore[T]) List(_ context.Context, limit int) ([]model.Updatable[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Updatable[T], 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Item.EntityID().Value < out[j].Item.EntityID().Value
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memListStore[T model.Entity] struct {
	states     map[string]model.ListState
	items      map[string][]T
	replaceErr error
	replaces   int
	appends    int
}

func newMemListStore[T model.Entity]() *memListStore[T] {
	return &memListStore[T]{states: map[string]model.ListState{}, items: map[string][]T{}}
}

func (s *memListStore[T]) State(_ context.Context, list string) (*model.ListState, error) {
	st, ok := s.states[list]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *memListStore[T]) Items(_ context.Context, list string) ([]T, error) {
	return append([]T(nil), s.items[list]...), nil
}

func (s *memListStore[T]) Count(_ context.Context, list string) (int, error) {
	return len(s.items[list]), nil
}

func (s *memListStore[T]) Replace(_ context.Context, list string, items []T, state model.ListState) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replaces++
	s.items[list] = append([]T(nil), items...)
	s.states[list] = state
	return nil
}

func (s *memListStore[T]) Append(_ context.Context, list string, items []T, _ int, state model.ListState) error {
	s.appends++
	existing := map[model.PlatformID]struct{}{}
	for _, item := range s.items[list] {
		existing[item.EntityID()] = struct{}{}
	}
	for _, item := range items {
		if _, ok := existing[item.EntityID()]; !ok {
			s.items[list] = append(s.items[list], item)
		}
	}
	s.states[list] = state
	return nil
}

type envelope struct {
	data []byte
	cc   model.CacheControl
}

type memEnvelopeStore struct {
	mu   sync.Mutex
	rows map[string]envelope
}

func newMemEnvelopeStore() *memEnvelopeStore {
	return &memEnvelopeStore{rows: map[string]envelope{}}
}

func (s *memEnvelopeStore) Load(_ context.Context, key string, dest any) (model.CacheControl, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[key]
	if !ok {
		return model.CacheControl{}, false, nil
	}
	if err := json.Unmarshal(row.data, dest); err != nil {
		return model.CacheControl{}, false, err
	}
	return row.cc, true, nil
}

func (s *memEnvelopeStore) Save(_ context.Context, key string, value any, cc model.CacheControl) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.rows[key] = envelope{data: data, cc: cc}
	return nil
}

func (s *memEnvelopeStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.rows, k)
	}
	return nil
}

type memPlaylistStore struct {
	rows     map[model.PlatformID]model.PlaylistWithItems
	replaces int
	updates  int
}

func newMemPlaylistStore() *memPlaylistStore {
	return &memPlaylistStore{rows: map[model.PlatformID]model.PlaylistWithItems{}}
}

func (s *memPlaylistStore) FindPlaylist(_ context.Context, id model.PlatformID) (*model.PlaylistWithItems, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *memPlaylistStore) ReplacePlaylist(_ context.Context, playlist model.Playlist, items []model.PlaylistItem) error {
	s.replaces++
	s.rows[playlist.ID] = model.PlaylistWithItems{Playlist: playlist, Items: items}
	return nil
}

func (s *memPlaylistStore) UpdatePlaylist(_ context.Context, playlist model.Playlist) error {
	row, ok := s.rows[playlist.ID]
	if !ok {
		return fmt.Errorf("playlist %s not cached", playlist.ID)
	}
	s.updates++
	row.Playlist = playlist
	s.rows[playlist.ID] = row
	return nil
}

type memFollowingsStore struct {
	rows map[model.PlatformID]model.FollowingsSnapshot
}

func newMemFollowingsStore() *memFollowingsStore {
	return &memFollowingsStore{rows: map[model.PlatformID]model.FollowingsSnapshot{}}
}

func (s *memFollowingsStore) Load(_ context.Context, followerID model.PlatformID) (*model.FollowingsSnapshot, error) {
	row, ok := s.rows[followerID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *memFollowingsStore) Save(_ context.Context, snapshot model.FollowingsSnapshot) error {
	s.rows[snapshot.FollowerID] = snapshot
	return nil
}

type memCleanupStore struct {
	videos   int64
	channels []model.PlatformID
}

func (s *memCleanupStore) DeleteUnreferencedVideos(context.Context) (int64, error) {
	return s.videos, nil
}

func (s *memCleanupStore) DeleteUnreferencedChannels(context.Context) ([]model.PlatformID, error) {
	return s.channels, nil
}

// Fixtures

func subscriptions(from, to int) []model.Subscription {
	var out []model.Subscription
	for i := from; i < to; i++ {
		out = append(out, model.Subscription{
			ID:      model.NewYouTubeID(fmt.Sprintf("sub-%02d", i)),
			Channel: model.ChannelRef{ID: model.NewYouTubeID(fmt.Sprintf("UC%02d", i)), Title: fmt.Sprintf("channel %02d", i)},
		})
	}
	return out
}

func subscriptionPage(items []model.Subscription, next string) *dto.Page[model.Subscription] {
	return &dto.Page[model.Subscription]{Items: items, NextPageToken: next}
}

func youtubeChannels(ids []model.PlatformID) []model.Channel {
	out := make([]model.Channel, len(ids))
	for i, id := range ids {
		out[i] = model.Channel{ID: id, Title: "title of " + id.Value}
	}
	return out
}

func ytIDs(values ...string) []model.PlatformID {
	ids := make([]model.PlatformID, len(values))
	for i, v := range values {
		ids[i] = model.NewYouTubeID(v)
	}
	return ids
}
