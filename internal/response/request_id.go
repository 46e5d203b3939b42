package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key for the request ID.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware generates a unique request ID for every request and
// stamps the dataset version used to answer it.
func RequestIDMiddleware(datasetVersion string) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Header("X-Request-ID", reqID)
		if datasetVersion != "" {
			c.Set(ContextKeyDatasetVersion, datasetVersion)
			c.Header("X-Dataset-Version", datasetVersion)
		}
		c.Next()
	}
}
