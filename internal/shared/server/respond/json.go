package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the standard success wrapper for API responses.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON writes a success envelope with the given status.
func JSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// OK writes a 200 OK success envelope.
func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data)
}
