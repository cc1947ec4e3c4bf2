package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/reelscope/pipeline/pkg/models"
)

// envelope is the {success, data, message?, error?} shape every
// response and error uses.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ok writes a successful envelope.
func ok(c *echo.Context, status int, data any, message string) error {
	return c.JSON(status, envelope{Success: true, Data: data, Message: message})
}

// fail maps a services/store-layer error to an HTTP status and an
// error envelope, via the shared models.ErrorKind taxonomy rather than
// a parallel sentinel-error scheme.
func fail(c *echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch models.KindOf(err) {
	case models.ErrorKindNotFound:
		status = http.StatusNotFound
	case models.ErrorKindValidation:
		status = http.StatusBadRequest
	case models.ErrorKindConflict:
		status = http.StatusConflict
	case models.ErrorKindFatal:
		status = http.StatusInternalServerError
	default:
		status = http.StatusInternalServerError
	}
	return c.JSON(status, envelope{Success: false, Error: err.Error()})
}

// badRequest writes a 400 envelope for a caller-input error that never
// reached the services layer (e.g. a malformed query parameter).
func badRequest(c *echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, envelope{Success: false, Error: message})
}
