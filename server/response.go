package server

import (
	"errors"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	apperrors "github.com/bleitz/meditai/errors"
	"github.com/bleitz/meditai/logger"
)

// DataResponse is the success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondWithError writes the standard error body. AppErrors keep their status;
// oversized bodies become 413 and anything else a 500.
func RespondWithError(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.GetGlobalLogger().WithContext(c.Request.Context()).Error("Request failed", map[string]interface{}{
			logger.FieldPath:  c.Request.URL.Path,
			logger.FieldError: err.Error(),
		})
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

func toAppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.PayloadTooLarge(humanize.IBytes(uint64(tooLarge.Limit)))
	}
	return apperrors.Internal(err)
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

func errNoRoute(path string) *apperrors.AppError {
	return apperrors.NotFound("route", path)
}
