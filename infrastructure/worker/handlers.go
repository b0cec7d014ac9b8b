package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/akihito104/yttt-sub001/domain/dto"
	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"
	"github.com/akihito104/yttt-sub001/usecase"
)

type TaskHandler struct {
	sync        usecase.ISyncUseCase
	asynqClient TaskEnqueuer
}

func NewTaskHandler(sync usecase.ISyncUseCase, client TaskEnqueuer) *TaskHandler {
	return &TaskHandler{sync: sync, asynqClient: client}
}

// Register binds every task type to its handler.
func (h *TaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSyncSubscriptions, h.HandleSyncSubscriptionsTask)
	mux.HandleFunc(TypeSyncFollowedStreams, h.HandleSyncFollowedStreamsTask)
	mux.HandleFunc(TypeSyncFollowings, h.HandleSyncFollowingsTask)
	mux.HandleFunc(TypeSyncUploads, h.HandleSyncUploadsTask)
	mux.HandleFunc(TypeSyncPlaylist, h.HandleSyncPlaylistTask)
	mux.HandleFunc(TypeCleanup, h.HandleCleanupTask)
}

func (h *TaskHandler) HandleSyncSubscriptionsTask(ctx context.Context, t *asynq.Task) error {
	var p SyncListTaskPayload
	if err := unmarshal(t, &p); err != nil {
		return err
	}
	res, err := h.sync.SyncSubscriptions(ctx, dto.LoadRefresh, p.All)
	if err != nil {
		return taskError(t, err)
	}
	logResult(t, res)
	return nil
}

func (h *TaskHandler) HandleSyncFollowedStreamsTask(ctx context.Context, t *asynq.Task) error {
	var p SyncListTaskPayload
	if err := unmarshal(t, &p); err != nil {
		return err
	}
	res, err := h.sync.SyncFollowedStreams(ctx, dto.LoadRefresh, p.All)
	if err != nil {
		return taskError(t, err)
	}
	logResult(t, res)
	return nil
}

func (h *TaskHandler) HandleSyncFollowingsTask(ctx context.Context, t *asynq.Task) error {
	res, err := h.sync.SyncFollowings(ctx)
	if err != nil {
		return taskError(t, err)
	}
	logResult(t, res)
	return nil
}

// HandleSyncUploadsTask enqueues one playlist sync per uploads playlist. The
// task ID dedupes playlists still waiting from the previous round.
func (h *TaskHandler) HandleSyncUploadsTask(ctx context.Context, t *asynq.Task) error {
	playlists, err := h.sync.UploadPlaylists(ctx)
	if err != nil {
		return taskError(t, err)
	}
	enqueued := 0
	for _, id := range playlists {
		task, err := NewSyncPlaylistTask(id.Value)
		if err != nil {
			return err
		}
		_, err = h.asynqClient.Enqueue(task, asynq.TaskID(TypeSyncPlaylist+":"+id.Value), asynq.Retention(time.Minute))
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to enqueue playlist %s: %w", id.Value, err)
		}
		enqueued++
	}
	logger.GetLogger().
		WithField("task", t.Type()).
		WithField("playlists", len(playlists)).
		WithField("enqueued", enqueued).
		Info("Uploads sync fanned out")
	return nil
}

func (h *TaskHandler) HandleSyncPlaylistTask(ctx context.Context, t *asynq.Task) error {
	var p SyncPlaylistTaskPayload
	if err := unmarshal(t, &p); err != nil {
		return err
	}
	if p.PlaylistID == "" {
		return fmt.Errorf("empty playlist id: %w", asynq.SkipRetry)
	}
	res, err := h.sync.SyncPlaylist(ctx, model.NewYouTubeID(p.PlaylistID))
	if err != nil {
		return taskError(t, err)
	}
	logger.GetLogger().
		WithField("task", t.Type()).
		WithField("playlist", p.PlaylistID).
		WithField("added", len(res.Added)).
		WithField("skipped", res.Skipped).
		Debug("Playlist synced")
	return nil
}

func (h *TaskHandler) HandleCleanupTask(ctx context.Context, t *asynq.Task) error {
	res, err := h.sync.Cleanup(ctx)
	if err != nil {
		return taskError(t, err)
	}
	logger.GetLogger().
		WithField("task", t.Type()).
		WithField("videos", res.Videos).
		WithField("channels", len(res.Channels)).
		Info("Unreferenced rows removed")
	return nil
}

func unmarshal(t *asynq.Task, dest any) error {
	if len(t.Payload()) == 0 {
		return nil
	}
	if err := json.Unmarshal(t.Payload(), dest); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}
	return nil
}

// taskError stops retries for failures another attempt cannot fix.
func taskError(t *asynq.Task, err error) error {
	if errors.Is(err, usecase.ErrPlatformDisabled) || errors.Is(err, model.ErrNotFound) {
		logger.GetLogger().WithField("task", t.Type()).WithField("error", err).Warn("Task dropped")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

func logResult(t *asynq.Task, res *dto.SyncResult) {
	logger.GetLogger().
		WithField("task", t.Type()).
		WithField("added", len(res.Added)).
		WithField("removed", len(res.Removed)).
		WithField("total", res.Total).
		Info("List synced")
}
