package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "response_meta"

// Meta keys set by handlers.
const (
	MetaCacheHit  = "cache_hit"
	MetaElapsedMS = "processing_time_ms"
)

// ResponseMeta prepares a per-request metadata map that handlers fill and
// the response envelope carries. The elapsed time is stamped after the handler
// returns, so only handlers that record it explicitly expose it.
func ResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetMeta records one metadata entry for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta := ensureMeta(c)
	meta[key] = value
}

// SetElapsed records the time spent since start.
func SetElapsed(c *gin.Context, start time.Time) {
	SetMeta(c, MetaElapsedMS, time.Since(start).Milliseconds())
}

// ExtractMeta returns the metadata map stored on the context, or nil when empty.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if value, exists := c.Get(responseMetaKey); exists {
		if meta, ok := value.(map[string]interface{}); ok && len(meta) > 0 {
			return meta
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if value, exists := c.Get(responseMetaKey); exists {
		if meta, ok := value.(map[string]interface{}); ok {
			return meta
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
