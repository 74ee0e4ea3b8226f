package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/twinchat/twinchat/internal/pkg/errcode"
	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
)

type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return e.code
}

func AsCodeErr(code uint32, msg string) error {
	return codeErr{code: code, msg: msg}
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, AsCodeErr(uint32(code), message))
}

// Fail maps a pipeline error to its API code. Internal detail stays out of
// the message; callers log the cause themselves.
func Fail(c *gin.Context, err error) {
	code, message := codeFor(err)
	Error(c, code, message)
}

func codeFor(err error) (int, string) {
	switch {
	case appErr.IsNotFound(err):
		return errcode.ErrNotFound, "not found"
	case appErr.IsInvalid(err):
		return errcode.ErrInvalid, "invalid request"
	case appErr.IsConflict(err):
		return errcode.ErrConflict, "conflict"
	default:
		return errcode.ErrInternal, "internal error"
	}
}
