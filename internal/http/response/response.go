package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/heartthread-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError renders err using the status and code of its *apierr.Error.
// Anything else is a 500.
func RespondAPIError(c *gin.Context, err error) {
	ae, ok := apierr.From(err)
	if err != nil && (!ok || ae.Status >= http.StatusInternalServerError) {
		// RequestLogger reports the cause hidden from the response body.
		_ = c.Error(err)
	}
	if !ok {
		RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("internal error"))
		return
	}
	msg := ae.Code
	if ae.Err != nil {
		msg = ae.Err.Error()
	}
	// Internal failures keep their detail in the logs, not the response.
	if ae.Status >= http.StatusInternalServerError && ae.Status != http.StatusGatewayTimeout && ae.Status != http.StatusBadGateway {
		msg = http.StatusText(ae.Status)
	}
	RespondError(c, ae.Status, ae.Code, errors.New(msg))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
