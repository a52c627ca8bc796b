package utils

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TraceIDKey TraceID在gin上下文和响应头中的键名
const TraceIDKey = "X-Trace-ID"

// requestLogger 请求日志记录器
var requestLogger = newRequestLogger()

func newRequestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		FullTimestamp:   true,
	})
	return logger
}

// GenerateTraceID 生成请求级TraceID
func GenerateTraceID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return fmt.Sprintf("%x", bytes)
}

// TraceIDMiddleware 为每个HTTP请求分配TraceID并记录请求完成日志
// 客户端可通过X-Trace-ID请求头传入已有TraceID（链路透传），否则生成新的
func TraceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDKey)
		if traceID == "" {
			traceID = GenerateTraceID()
		}
		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDKey, traceID)

		startTime := time.Now()
		c.Next()

		requestLogger.WithFields(logrus.Fields{
			"traceId": traceID,
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(startTime).String(),
			"client":  c.ClientIP(),
		}).Info("请求完成")
	}
}

// GetTraceID 从gin上下文取出当前请求的TraceID
func GetTraceID(c *gin.Context) string {
	if traceID, exists := c.Get(TraceIDKey); exists {
		if id, ok := traceID.(string); ok {
			return id
		}
	}
	return ""
}
