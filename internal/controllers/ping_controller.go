package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ConnectionChecker interface {
	CheckConnection(ctx context.Context) error
}

type PingController struct {
	pingService ConnectionChecker
}

func NewPingController(pingService ConnectionChecker) *PingController {
	return &PingController{pingService: pingService}
}

func (p *PingController) Ping(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	if err := p.pingService.CheckConnection(reqCtx); err != nil {
		ctx.String(http.StatusInternalServerError, ErrInternal.Error())
		return
	}
	ctx.String(http.StatusOK, "pong")
}
