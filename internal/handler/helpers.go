package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/twinchat/twinchat/internal/middleware"
	"github.com/twinchat/twinchat/internal/pkg/response"
)

func getOperator(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextOperatorKey)
	operator, _ := value.(string)
	return operator
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("operator", getOperator(c)),
		zap.Error(err),
	)
	response.Fail(c, err)
}
