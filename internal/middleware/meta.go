package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "response_meta"

// WithResponseMeta starts a per-request metadata map that handlers attach to the envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{"started_at": time.Now()})
		c.Next()
	}
}

// ResponseMeta returns the metadata of the current request with its elapsed time filled in.
// It returns nil when WithResponseMeta is not installed.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	stored, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	meta := make(map[string]interface{}, len(stored))
	for k, v := range stored {
		if k == "started_at" {
			if started, ok := v.(time.Time); ok {
				meta["processing_time_ms"] = time.Since(started).Milliseconds()
			}
			continue
		}
		meta[k] = v
	}
	return meta
}

// SetMeta records a metadata entry for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if raw, exists := c.Get(responseMetaKey); exists {
		if stored, ok := raw.(map[string]interface{}); ok {
			stored[key] = value
		}
	}
}
