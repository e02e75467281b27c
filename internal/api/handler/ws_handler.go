package handler

import (
	"Pulseboard/internal/pkg/ws"

	"github.com/gin-gonic/gin"
)

type WsHandler struct {
	hub *ws.Hub
}

func NewWsHandler(hub *ws.Hub) *WsHandler {
	return &WsHandler{hub: hub}
}

// Connect 订阅入库事件流
func (s *WsHandler) Connect(c *gin.Context) {
	s.hub.Serve(c.Writer, c.Request)
}
