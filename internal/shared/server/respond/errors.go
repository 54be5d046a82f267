package respond

import (
	"github.com/gin-gonic/gin"

	"heatpump-backend/internal/shared/telemetry"
)

// ErrorResponse is the standardized error envelope.
type ErrorResponse struct {
	Status  string      `json:"status"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, data interface{}) {
	telemetry.Error("http.error", map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	})

	c.AbortWithStatusJSON(status, ErrorResponse{
		Status:  StatusError,
		Code:    code,
		Message: message,
		Data:    data,
	})
}
