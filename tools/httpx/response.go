package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ishaan-vashist/chatcraft-ai/tools/errs"
)

// WriteError maps a coded error onto an HTTP status and the shared
// {code, message} error body. Unknown errors collapse to a 500 without
// leaking internals.
func WriteError(c *gin.Context, err error) {
	ce := errs.AsCodeError(err)
	c.JSON(statusFor(ce.Kind), gin.H{
		"code":    ce.Kind,
		"message": ce.Msg,
	})
}

func statusFor(kind string) int {
	switch kind {
	case errs.KindAuth:
		return http.StatusUnauthorized
	case errs.KindNotParticipant:
		return http.StatusForbidden
	case errs.KindValidation, errs.KindProtocol:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
