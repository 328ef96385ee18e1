package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/cashx/utils"
)

// Metrics records request counts and latency per matched route.
func Metrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		utils.ObserveHTTP(ctx.Request.Method, ctx.FullPath(), ctx.Writer.Status(), time.Since(start))
	}
}
