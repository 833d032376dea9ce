package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/apierr"
)

var errInternal = errors.New("Failed to process request")

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

// RespondErr maps an apierr.Error to its status and public message; anything
// else is a 500 whose details stay in the logs.
func RespondErr(c *gin.Context, err error) {
	ae, ok := apierr.From(err)
	if !ok {
		_ = c.Error(err)
		RespondError(c, http.StatusInternalServerError, "internal_error", errInternal)
		return
	}
	if ae.Message != "" && ae.Err != nil {
		_ = c.Error(ae.Err)
	}
	c.JSON(apierr.StatusOf(ae), ErrorEnvelope{
		Error: APIError{Message: ae.Public(), Code: ae.Code},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
