package nostd

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"BTC", "eth", "SOL"}, SplitCSV("BTC, eth,,SOL "))
	assert.Nil(t, SplitCSV(""))
	assert.Nil(t, SplitCSV(" , "))
}

func TestQueryInt(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=20&bad=abc", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, 20, QueryInt(c, "limit", 50))
	assert.Equal(t, 50, QueryInt(c, "bad", 50))
	assert.Equal(t, 50, QueryInt(c, "missing", 50))
}

type openRequest struct {
	Symbol   string `validate:"required"`
	Leverage int    `validate:"min=1,max=125"`
}

func TestCustomValidator(t *testing.T) {
	cv := CustomValidator{Validator: validator.New()}
	require.NoError(t, cv.TransInit())

	assert.NoError(t, cv.Validate(&openRequest{Symbol: "ETH", Leverage: 3}))

	err := cv.Validate(&openRequest{Leverage: 0})
	require.Error(t, err)
	var ve validator.ValidationErrors
	require.True(t, errors.As(err, &ve))

	msg := TranslateError(ve)
	assert.Contains(t, msg, "Symbol is a required field")
	assert.Contains(t, msg, "Leverage must be 1 or greater")
}
