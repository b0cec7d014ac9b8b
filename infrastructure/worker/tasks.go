package worker

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeSyncSubscriptions   = "sync:subscriptions"
	TypeSyncFollowedStreams = "sync:followed-streams"
	TypeSyncFollowings      = "sync:followings"
	TypeSyncUploads         = "sync:uploads"
	TypeSyncPlaylist        = "sync:playlist"
	TypeCleanup             = "cleanup:unreferenced"
)

// TaskEnqueuer is implemented by asynq.Client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type SyncListTaskPayload struct {
	All bool `json:"all"`
}

func NewSyncSubscriptionsTask(all bool) (*asynq.Task, error) {
	return newListTask(TypeSyncSubscriptions, all)
}

func NewSyncFollowedStreamsTask(all bool) (*asynq.Task, error) {
	return newListTask(TypeSyncFollowedStreams, all)
}

func newListTask(typename string, all bool) (*asynq.Task, error) {
	payload, err := json.Marshal(SyncListTaskPayload{All: all})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typename, payload), nil
}

func NewSyncFollowingsTask() *asynq.Task {
	return asynq.NewTask(TypeSyncFollowings, nil)
}

// NewSyncUploadsTask fans out into one playlist task per subscribed channel.
func NewSyncUploadsTask() *asynq.Task {
	return asynq.NewTask(TypeSyncUploads, nil)
}

type SyncPlaylistTaskPayload struct {
	PlaylistID string `json:"playlist_id"`
}

// NewSyncPlaylistTask takes the raw YouTube playlist ID.
func NewSyncPlaylistTask(playlistID string) (*asynq.Task, error) {
	payload, err := json.Marshal(SyncPlaylistTaskPayload{PlaylistID: playlistID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSyncPlaylist, payload), nil
}

func NewCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeCleanup, nil)
}
