package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/akihito104/yttt-sub001/domain/dto"
	"github.com/akihito104/yttt-sub001/domain/model"
	"github.com/akihito104/yttt-sub001/infrastructure/logger"
	"github.com/akihito104/yttt-sub001/usecase"
)

// statusOf maps use case errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrPlatformDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	}
	if _, ok := model.AsNetworkError(err); ok {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(ctx *gin.Context, message string, err error) {
	status := statusOf(err)
	entry := logger.GetLogger().WithField("path", ctx.FullPath()).WithField("error", err)
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Warn(message)
	}
	ctx.JSON(status, dto.Res{
		ResponseCode:    strconv.Itoa(status),
		ResponseMessage: message + ": " + err.Error(),
	})
}

func badRequest(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusBadRequest, dto.Res{
		ResponseCode:    strconv.Itoa(http.StatusBadRequest),
		ResponseMessage: message,
	})
}
