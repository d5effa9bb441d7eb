package internal

import (
	"errors"
	"net/http"

	"github.com/dushixiang/leverquest/internal/xe"
	"github.com/dushixiang/leverquest/pkg/exchange"
	"github.com/dushixiang/leverquest/pkg/nostd"
	"github.com/dushixiang/leverquest/pkg/posmath"
	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func WithErrorHandler(logger *zap.Logger) func(next echo.HandlerFunc) echo.HandlerFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}
			code, body := errorResponse(err)
			if code == http.StatusInternalServerError {
				logger.Error("api", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.JSON(code, body)
		}
	}
}

func errorResponse(err error) (int, orz.Map) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, orz.Map{
			"code":    he.Code,
			"message": err.Error(),
		}
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return http.StatusBadRequest, orz.Map{
			"code":    xe.ErrInvalidParams.Code,
			"message": nostd.TranslateError(ve),
		}
	}

	if errors.Is(err, posmath.ErrInvalidArgument) {
		return http.StatusBadRequest, orz.Map{
			"code":    xe.ErrInvalidParams.Code,
			"message": err.Error(),
		}
	}

	var oe *orz.Error
	if errors.As(err, &oe) {
		var code = http.StatusBadRequest
		if errors.Is(err, xe.ErrNotFound) {
			code = http.StatusNotFound
		}
		return code, orz.Map{
			"code":    oe.Code,
			"message": err.Error(),
		}
	}

	if errors.Is(err, exchange.ErrUnknownSymbol) {
		return http.StatusNotFound, orz.Map{
			"code":    xe.ErrNotFound.Code,
			"message": err.Error(),
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound, orz.Map{
			"code":    xe.ErrNotFound.Code,
			"message": xe.ErrNotFound.Error(),
		}
	}

	return http.StatusInternalServerError, orz.Map{
		"code":    500,
		"message": err.Error(),
	}
}
