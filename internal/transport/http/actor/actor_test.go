package actor

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoke(t *testing.T, headers map[string]string) Actor {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got Actor
	handler := Middleware()(func(c echo.Context) error {
		got = FromContext(c)
		return nil
	})
	require.NoError(t, handler(c))
	return got
}

func TestMiddlewareReadsGatewayHeaders(t *testing.T) {
	got := invoke(t, map[string]string{
		"X-Customer-Ref": "cust-1",
		"X-Actor-Role":   "vendor",
	})
	assert.Equal(t, "cust-1", got.CustomerRef)
	assert.Equal(t, RoleVendor, got.Role)
	assert.True(t, got.IsVendor())
}

func TestMiddlewareDefaultsToCustomer(t *testing.T) {
	got := invoke(t, map[string]string{"X-Customer-Ref": "cust-1"})
	assert.Equal(t, RoleCustomer, got.Role)
	assert.False(t, got.IsVendor())
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, Actor{}, FromContext(c))
}
