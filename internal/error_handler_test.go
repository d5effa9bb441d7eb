package internal

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dushixiang/leverquest/internal/xe"
	"github.com/dushixiang/leverquest/pkg/exchange"
	"github.com/dushixiang/leverquest/pkg/posmath"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestErrorResponse(t *testing.T) {
	for _, tc := range []struct {
		name     string
		err      error
		status   int
		codeWant interface{}
	}{
		{"http error", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, http.StatusMethodNotAllowed},
		{"invalid argument", fmt.Errorf("open: %w", posmath.ErrInvalidArgument), http.StatusBadRequest, xe.ErrInvalidParams.Code},
		{"domain error", xe.ErrPositionNotOpen, http.StatusBadRequest, xe.ErrPositionNotOpen.Code},
		{"not found", xe.ErrNotFound, http.StatusNotFound, xe.ErrNotFound.Code},
		{"record not found", fmt.Errorf("get: %w", gorm.ErrRecordNotFound), http.StatusNotFound, xe.ErrNotFound.Code},
		{"unknown symbol", fmt.Errorf("%w: DOGE", exchange.ErrUnknownSymbol), http.StatusNotFound, xe.ErrNotFound.Code},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError, 500},
	} {
		t.Run(tc.name, func(t *testing.T) {
			status, body := errorResponse(tc.err)
			assert.Equal(t, tc.status, status)
			assert.EqualValues(t, tc.codeWant, body["code"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestWithErrorHandler(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/positions/x", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := WithErrorHandler(zap.NewNop())(func(c echo.Context) error {
		return xe.ErrPositionNotOpen
	})
	assert.NoError(t, h(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "11001")
}
