package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akihito104/yttt-sub001/usecase"
)

type ITimelineHandler interface {
	Timeline(ctx *gin.Context)
}

type TimelineHandler struct {
	timelineUseCase usecase.ITimelineUseCase
}

func NewTimelineHandler(timelineUseCase usecase.ITimelineUseCase) ITimelineHandler {
	return &TimelineHandler{timelineUseCase: timelineUseCase}
}

// Timeline handles GET /api/timeline
func (h *TimelineHandler) Timeline(ctx *gin.Context) {
	res, err := h.timelineUseCase.Timeline(ctx.Request.Context())
	if err != nil {
		respondError(ctx, "Failed to build timeline", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": res})
}
