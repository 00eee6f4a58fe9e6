package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	CacheNoCache = 0
	CacheCustom  = -1
	CacheNoStore = -2 // Responses carrying personal data
)

type CacheRouter struct {
	CacheTime int // defaults to CacheNoCache = 0
}

func (cr *CacheRouter) Handler() gin.HandlerFunc {
	var value string
	switch {
	case cr.CacheTime == CacheCustom:
	case cr.CacheTime == CacheNoStore:
		value = "no-store"
	case cr.CacheTime == CacheNoCache:
		value = "no-cache"
	default:
		value = "private, max-age=" + strconv.Itoa(cr.CacheTime)
	}
	return func(c *gin.Context) {
		if value != "" {
			c.Header("cache-control", value)
		}
		c.Next()
	}
}
