package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	HeaderName = "x-api-key"
	authError  = "auth_error"
)

// Router is a wrapper class that runs the API key check before every handler
type Router struct {
	Base   gin.IRouter
	APIKey string
}

func (cr *Router) baseExec(c *gin.Context, handler gin.HandlerFunc) {
	key := c.GetHeader(HeaderName)
	if key == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Chave API não fornecida. Use o cabeçalho 'x-api-key'.",
			"error":   authError,
		})
		return
	}
	if cr.APIKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(cr.APIKey)) != 1 {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "Chave API inválida.",
			"error":   authError,
		})
		return
	}
	handler(c)
}

func (cr *Router) POST(path string, handler gin.HandlerFunc) {
	cr.Base.POST(path, func(c *gin.Context) {
		cr.baseExec(c, handler)
	})
}

func (cr *Router) GET(path string, handler gin.HandlerFunc) {
	cr.Base.GET(path, func(c *gin.Context) {
		cr.baseExec(c, handler)
	})
}

func (cr *Router) DELETE(path string, handler gin.HandlerFunc) {
	cr.Base.DELETE(path, func(c *gin.Context) {
		cr.baseExec(c, handler)
	})
}
