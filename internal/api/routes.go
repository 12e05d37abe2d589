package api

import (
	"github.com/labstack/echo/v4"

	"github.com/satriahrh/voicechat/server/internal/metrics"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, h *Handler, m *metrics.Metrics) {
	if m != nil {
		e.Use(m.Middleware())
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	e.GET("/", h.root)
	e.GET("/health", h.health)

	e.POST("/speech-to-text", h.speechToText)
	e.POST("/chat", h.chatCompletion)
	e.POST("/text-to-speech", h.textToSpeechForm)
	e.GET("/text-to-speech-get", h.textToSpeechQuery)
	e.POST("/voice-chat", h.voiceChatRound)
}
