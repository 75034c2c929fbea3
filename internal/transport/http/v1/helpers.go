package v1

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reloved/marketplace/internal/domain"
)

// userIDHeader carries the caller's identity. An API gateway in front of this
// service is expected to authenticate and set it.
const userIDHeader = "X-User-ID"

// callerID extracts the authenticated user. Empty means unauthenticated.
func callerID(c echo.Context) string {
	return c.Request().Header.Get(userIDHeader)
}

// requireCaller extracts the authenticated user or writes a 401.
func requireCaller(c echo.Context) (string, error) {
	userID := callerID(c)
	if userID == "" {
		return "", respondError(c, domain.NewError(domain.ErrCodeUnauthorized, "missing %s header", userIDHeader))
	}
	return userID, nil
}

// errorBody is the error envelope. Clients branch on error.code.
type errorBody struct {
	Error *domain.Error `json:"error"`
}

// respondError maps a coded domain error onto an HTTP status and writes the
// envelope. Unrecognized errors become opaque 500s.
func respondError(c echo.Context, err error) error {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		log.Printf("ERROR: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		derr = domain.NewError(domain.ErrCodeInternal, "internal error")
	}
	return c.JSON(statusForCode(derr.Code), errorBody{Error: derr})
}

func statusForCode(code string) int {
	switch code {
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeValidation:
		return http.StatusBadRequest
	case domain.ErrCodeConfirmRequired:
		return http.StatusConflict
	case domain.ErrCodePriceBlocked:
		return http.StatusUnprocessableEntity
	case domain.ErrCodeNotYourTurn:
		return http.StatusConflict
	case domain.ErrCodeExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
