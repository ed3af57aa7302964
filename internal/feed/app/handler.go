package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pricefeed_api/internal/feed/service"
	"pricefeed_api/pkg/middleware"
)

type FeedService interface {
	Products(ctx context.Context, req service.Request) service.Response
	Version() string
}

type FeedHandler struct {
	svc FeedService
	log *zap.Logger
}

func NewFeedHandler(svc FeedService, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{svc: svc, log: logger.Named("handler")}
}

func (h *FeedHandler) Products(c *gin.Context) {
	req, err := parseRequest(c)
	if err != nil {
		h.log.Info("bad feed request", zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		detail := err.Error()
		c.JSON(http.StatusBadRequest, service.ErrorPayload{Error: &detail, Version: h.svc.Version()})
		return
	}

	resp := h.svc.Products(c.Request.Context(), req)
	c.JSON(resp.Status, resp.Body)
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
