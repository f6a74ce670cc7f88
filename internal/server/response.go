package server

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	event := log.Warn()
	if statusCode >= 500 {
		event = log.Error()
	}
	event.Err(err).Str("request_id", requestID(c)).Msg(message)
	c.JSON(statusCode, Response{Success: false, Message: message})
	c.Abort()
}
