package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/float_backend/config"
)

type ErrorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

// Envelope is the body of every API response.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

func RespondOK(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

// RespondError writes the failure envelope. Server errors are logged with the
// original cause and reported with a generic message.
func RespondError(c *gin.Context, err error) {
	appErr := ToAppError(err)
	if appErr.Code == CodeServer {
		cid, _ := GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(config.GetLogger(), "api", c.FullPath(), c.Request.Method, cid, err)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(appErr.Status, Envelope{
		Success: false,
		Error: &ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		},
	})
}
