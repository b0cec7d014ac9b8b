package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/akihito104/yttt-sub001/domain/dto"
	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/usecase"
)

// ISyncHandler defines the sync and lookup HTTP handlers
type ISyncHandler interface {
	Initialize(ctx *gin.Context)
	SyncSubscriptions(ctx *gin.Context)
	SyncFollowedStreams(ctx *gin.Context)
	SyncFollowings(ctx *gin.Context)
	SyncPlaylist(ctx *gin.Context)
	Cleanup(ctx *gin.Context)
	Channels(ctx *gin.Context)
	ChannelSections(ctx *gin.Context)
}

type SyncHandler struct {
	syncUseCase usecase.ISyncUseCase
}

func NewSyncHandler(syncUseCase usecase.ISyncUseCase) ISyncHandler {
	return &SyncHandler{syncUseCase: syncUseCase}
}

// Initialize handles GET /api/lists/:list/initialize
func (h *SyncHandler) Initialize(ctx *gin.Context) {
	list := ctx.Param("list")
	action, err := h.syncUseCase.Initialize(ctx.Request.Context(), list)
	if err != nil {
		respondError(ctx, "Failed to initialize "+list, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"list": list, "action": action.String()}})
}

// loadParams reads ?load=refresh|append|prepend and ?all=true.
func loadParams(ctx *gin.Context) (dto.LoadType, bool, bool) {
	loadType, ok := dto.ParseLoadType(ctx.Query("load"))
	if !ok {
		badRequest(ctx, "load must be one of refresh, append, prepend")
		return 0, false, false
	}
	all := false
	if raw := ctx.Query("all"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(ctx, "all must be a boolean")
			return 0, false, false
		}
		all = v
	}
	return loadType, all, true
}

// SyncSubscriptions handles POST /api/sync/subscriptions
func (h *SyncHandler) SyncSubscriptions(ctx *gin.Context) {
	loadType, all, ok := loadParams(ctx)
	if !ok {
		return
	}
	res, err := h.syncUseCase.SyncSubscriptions(ctx.Request.Context(), loadType, all)
	if err != nil {
		respondError(ctx, "Failed to sync subscriptions", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": res})
}

// SyncFollowedStreams handles POST /api/sync/followed-streams
func (h *SyncHandler) SyncFollowedStreams(ctx *gin.Context) {
	loadType, all, ok := loadParams(ctx)
	if !ok {
		return
	}
	res, err := h.syncUseCase.SyncFollowedStreams(ctx.Request.Context(), loadType, all)
	if err != nil {
		respondError(ctx, "Failed to sync followed streams", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": res})
}

// SyncFollowings handles POST /api/sync/followings
func (h *SyncHandler) SyncFollowings(ctx *gin.Context) {
	res, err := h.syncUseCase.SyncFollowings(ctx.Request.Context())
	if err != nil {
		respondError(ctx, "Failed to sync followings", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": res})
}

// SyncPlaylist handles POST /api/sync/playlists/:id
func (h *SyncHandler) SyncPlaylist(ctx *gin.Context) {
	id := ctx.Param("id")
	if id == "" {
		badRequest(ctx, "Playlist ID is required")
		return
	}
	res, err := h.syncUseCase.SyncPlaylist(ctx.Request.Context(), model.NewYouTubeID(id))
	if err != nil {
		respondError(ctx, "Failed to sync playlist", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": res})
}

// Cleanup handles POST /api/sync/cleanup
func (h *SyncHandler) Cleanup(ctx *gin.Context) {
	res, err := h.syncUseCase.Cleanup(ctx.Request.Context())
	if err != nil {
		respondError(ctx, "Failed to clean up", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": res})
}

// Channels handles GET /api/channels?youtube=UC1,UC2&twitch=42
func (h *SyncHandler) Channels(ctx *gin.Context) {
	var req dto.ChannelListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err.Error())
		return
	}
	var ids []model.PlatformID
	for _, v := range splitValues(req.YouTube) {
		ids = append(ids, model.NewYouTubeID(v))
	}
	for _, v := range splitValues(req.Twitch) {
		ids = append(ids, model.NewTwitchID(v))
	}
	if len(ids) == 0 {
		badRequest(ctx, "at least one youtube or twitch channel ID is required")
		return
	}
	channels, err := h.syncUseCase.ResolveChannels(ctx.Request.Context(), ids)
	if err != nil {
		respondError(ctx, "Failed to resolve channels", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": channels})
}

// ChannelSections handles GET /api/channels/:id/sections
func (h *SyncHandler) ChannelSections(ctx *gin.Context) {
	id := ctx.Param("id")
	sections, err := h.syncUseCase.ChannelSections(ctx.Request.Context(), model.NewYouTubeID(id))
	if err != nil {
		respondError(ctx, "Failed to get channel sections", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": sections})
}

// splitValues accepts both repeated parameters and comma separated lists.
func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
