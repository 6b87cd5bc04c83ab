package middleware

import (
	"errors"
	"net/http"

	"ravello/domain"
	"ravello/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation:           http.StatusBadRequest,
	domain.KindAuthentication:       http.StatusUnauthorized,
	domain.KindAuthorization:        http.StatusForbidden,
	domain.KindNotFound:             http.StatusNotFound,
	domain.KindConflict:             http.StatusConflict,
	domain.KindInsufficientResource: http.StatusBadRequest,
	domain.KindStorage:              http.StatusInternalServerError,
	domain.KindDependency:           http.StatusInternalServerError,
}

// StatusOf maps an error to the HTTP status, code and message sent to the
// caller. Storage and dependency details stay in the server log.
func StatusOf(err error) (int, string, string) {
	var de *domain.Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, string(domain.KindStorage), "Internal server error"
	}

	status, ok := kindStatus[de.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		return status, string(de.Kind), "Internal server error"
	}
	return status, string(de.Kind), de.Message
}

// WriteError writes err as a failure envelope.
func WriteError(c echo.Context, err error) error {
	status, code, msg := StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.Path(), "error", err)
	}

	var data any
	var de *domain.Error
	if errors.As(err, &de) && de.ProductID != 0 {
		data = map[string]uint64{"product_id": de.ProductID}
	}

	return c.JSON(status, fres.DefaultErrorResponse{Success: false, Status: code, Message: msg, Error: data})
}

// ErrorHandler is installed as echo's HTTPErrorHandler so routing and binding
// failures use the same envelope as handler errors.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		if he.Code >= http.StatusInternalServerError {
			logger.Error("Unhandled error", "path", c.Path(), "error", err)
			msg = "Internal server error"
		}
		if werr := c.JSON(he.Code, fres.DefaultErrorResponse{
			Success: false,
			Status:  codeFor(he.Code),
			Message: msg,
		}); werr != nil {
			logger.Error("Failed to write error response", werr)
		}
		return
	}

	if werr := WriteError(c, err); werr != nil {
		logger.Error("Failed to write error response", werr)
	}
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(domain.KindValidation)
	case http.StatusUnauthorized:
		return string(domain.KindAuthentication)
	case http.StatusForbidden:
		return string(domain.KindAuthorization)
	case http.StatusNotFound:
		return string(domain.KindNotFound)
	case http.StatusConflict:
		return string(domain.KindConflict)
	}
	if status >= http.StatusInternalServerError {
		return "INTERNAL_ERROR"
	}
	return "HTTP_ERROR"
}
