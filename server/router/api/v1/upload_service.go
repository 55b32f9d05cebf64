package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/agenthub/internal/upload"
)

// Upload handles POST /api/upload with a multipart "file" field.
// The returned saved_path is what clients pass back as file_path.
func (s *APIV1Service) Upload(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing multipart field 'file'").SetInternal(err)
	}

	src, err := header.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read upload").SetInternal(err)
	}
	defer src.Close()

	file, err := s.Uploads.Save(header.Filename, header.Header.Get(echo.HeaderContentType), src)
	switch {
	case errors.Is(err, upload.ErrExtensionNotAllowed), errors.Is(err, upload.ErrTooLarge):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save upload").SetInternal(err)
	}
	return c.JSON(http.StatusOK, file)
}
