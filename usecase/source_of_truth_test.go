package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/infrastructure/utils"
	"github.com/akihito104/yttt-sub001/usecase"
)

// countingFetcher answers every ID it is asked for, except those in fail.
type countingFetcher struct {
	calls int32
	fail  map[model.PlatformID]error
}

func (f *countingFetcher) fetch(_ context.Context, ids []model.PlatformID) (model.Updatable[[]model.Channel], error) {
	atomic.AddInt32(&f.calls, 1)
	for _, id := range ids {
		if err, ok := f.fail[id]; ok {
			return model.Updatable[[]model.Channel]{}, err
		}
	}
	return model.NewUpdatable(youtubeChannels(ids), model.CacheControl{}), nil
}

func manyIDs(n int) []model.PlatformID {
	ids := make([]model.PlatformID, n)
	for i := range ids {
		ids[i] = model.NewYouTubeID(fmt.Sprintf("UC%03d", i))
	}
	return ids
}

func TestSourceOfTruth_FreshCacheMakesNoRemoteCall(t *testing.T) {
	clock := &utils.FixedClock{T: baseTime}
	store := newMemEntityStore[model.Channel]()
	ids := ytIDs("a", "b", "c")
	require.NoError(t, store.Upsert(context.Background(), youtubeChannels(ids), model.NewCacheControl(baseTime, time.Hour)))

	fetcher := &countingFetcher{}
	sot := usecase.NewSourceOfTruth[model.Channel](store, fetcher.fetch, clock, 50, time.Hour)

	got, err := sot.Resolve(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, ids, model.IDsOf(got))
	assert.Equal(t, int32(0), fetcher.calls)
}

func TestSourceOfTruth_BatchesMissingIDs(t *testing.T) {
	clock := &utils.FixedClock{T: baseTime}
	store := newMemEntityStore[model.Channel]()
	fetcher := &countingFetcher{}
	sot := usecase.NewSourceOfTruth[model.Channel](store, fetcher.fetch, clock, 50, time.Hour)

	ids := manyIDs(120)
	got, err := sot.Resolve(context.Background(), ids)
	require.NoError(t, err)

	assert.Equal(t, ids, model.IDsOf(got))
	assert.Equal(t, int32(3), fetcher.calls)
	assert.Equal(t, 3, store.upserts)

	rows, err := store.Find(context.Background(), ids[:1])
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, baseTime, *rows[0].CacheControl.FetchedAt)
	assert.Equal(t, time.Hour, *rows[0].CacheControl.MaxAge)
}

func TestSourceOfTruth_StaleRowsAreRefetched(t *testing.T) {
	clock := &utils.FixedClock{T: baseTime}
	store := newMemEntityStore[model.Channel]()
	require.NoError(t, store.Upsert(context.Background(), youtubeChannels(ytIDs("a")), model.NewCacheControl(baseTime, time.Hour)))
	require.NoError(t, store.Upsert(context.Background(), youtubeChannels(ytIDs("b")), model.NewCacheControl(baseTime.Add(-2*time.Hour), time.Hour)))

	var asked []model.PlatformID
	fetch := func(_ context.Context, ids []model.PlatformID) (model.Updatable[[]model.Channel], error) {
		asked = append(asked, ids...)
		return model.NewUpdatable(youtubeChannels(ids), model.NewCacheControl(baseTime, time.Hour)), nil
	}
	sot := usecase.NewSourceOfTruth[model.Channel](store, fetch, clock, 50, time.Hour)

	got, err := sot.Resolve(context.Background(), ytIDs("b", "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, ytIDs("b", "a"), model.IDsOf(got))
	assert.Equal(t, ytIDs("b"), asked)
}

func TestSourceOfTruth_FailedBatchFailsTheCall(t *testing.T) {
	clock := &utils.FixedClock{T: baseTime}
	store := newMemEntityStore[model.Channel]()
	ids := manyIDs(100)
	quota := &model.NetworkError{StatusCode: 403, QuotaExceeded: true}
	fetcher := &countingFetcher{fail: map[model.PlatformID]error{ids[75]: quota}}
	sot := usecase.NewSourceOfTruth[model.Channel](store, fetcher.fetch, clock, 50, time.Hour)

	got, err := sot.Resolve(context.Background(), ids)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, model.ErrQuotaExceeded))

	// the batch that succeeded may or may not have been written before the
	// group was cancelled, but the failing one never is
	rows, err := store.Find(context.Background(), ids[50:])
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSourceOfTruth_StoreReadFailure(t *testing.T) {
	store := newMemEntityStore[model.Channel]()
	store.findErr = errors.New("db down")
	fetcher := &countingFetcher{}
	sot := usecase.NewSourceOfTruth[model.Channel](store, fetcher.fetch, &utils.FixedClock{T: baseTime}, 50, time.Hour)

	_, err := sot.Resolve(context.Background(), ytIDs("a"))
	require.Error(t, err)
	assert.Equal(t, int32(0), fetcher.calls)
}

func TestSourceOfTruth_ResolveOneNotFound(t *testing.T) {
	fetch := func(context.Context, []model.PlatformID) (model.Updatable[[]model.Channel], error) {
		return model.NewUpdatable([]model.Channel{}, model.CacheControl{}), nil
	}
	sot := usecase.NewSourceOfTruth[model.Channel](newMemEntityStore[model.Channel](), fetch, &utils.FixedClock{T: baseTime}, 50, time.Hour)

	_, err := sot.ResolveOne(context.Background(), model.NewYouTubeID("gone"))
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestSelfResolver_Get(t *testing.T) {
	clock := &utils.FixedClock{T: baseTime}
	store := newMemEnvelopeStore()
	calls := 0
	fetch := func(context.Context) (model.Updatable[model.Channel], error) {
		calls++
		return model.NewUpdatable(model.Channel{ID: model.NewTwitchID("141981764"), LoginName: "twitchdev"}, model.CacheControl{}), nil
	}
	self := usecase.NewSelfResolver(store, "twitch:me", fetch, clock, time.Hour)

	me, err := self.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "twitchdev", me.LoginName)

	me, err = self.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.NewTwitchID("141981764"), me.ID)
	assert.Equal(t, 1, calls)

	clock.Advance(time.Hour)
	_, err = self.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSelfResolver_PropagatesFetchError(t *testing.T) {
	fetch := func(context.Context) (model.Updatable[model.Channel], error) {
		return model.Updatable[model.Channel]{}, &model.NetworkError{StatusCode: 503}
	}
	self := usecase.NewSelfResolver(newMemEnvelopeStore(), "twitch:me", fetch, &utils.FixedClock{T: baseTime}, time.Hour)

	_, err := self.Get(context.Background())
	assert.True(t, errors.Is(err, model.ErrServer))
}
