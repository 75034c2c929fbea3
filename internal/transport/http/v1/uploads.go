package v1

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reloved/marketplace/internal/domain"
)

// Photos above this size are rejected before hitting the vision model.
const maxImageBytes = 10 << 20

// AnalyzeUpload accepts a furniture photo (multipart field "image") and
// returns a prefilled listing draft with pricing suggestions.
// POST /v1/uploads/analyze
func (h *Handler) AnalyzeUpload(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return respondError(c, domain.ValidationError("multipart field 'image' is required"))
	}
	if fileHeader.Size > maxImageBytes {
		return respondError(c, domain.ValidationError("image exceeds the 10MB limit"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		return respondError(c, err)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	draft, err := h.service.AnalyzeListing(ctx, userID, fileHeader.Filename, data, contentType)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, draft)
}
