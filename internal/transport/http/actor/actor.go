// Package actor lifts caller identity out of gateway headers. Authentication
// itself lives in front of this service; by the time a request arrives, the
// gateway has verified credentials and stamped X-Customer-Ref and
// X-Actor-Role.
package actor

import (
	"github.com/labstack/echo/v4"
)

// Role distinguishes the two caller kinds.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
)

const (
	headerCustomerRef = "X-Customer-Ref"
	headerActorRole   = "X-Actor-Role"

	contextKey = "kooko.actor"
)

// Actor identifies the caller of a request.
type Actor struct {
	CustomerRef string
	Role        Role
}

// IsVendor reports whether the actor acts on behalf of the vendor.
func (a Actor) IsVendor() bool {
	return a.Role == RoleVendor
}

// Middleware stores the gateway-provided actor on the echo context. Missing
// headers yield a zero actor; handlers decide which operations require one.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a := Actor{
				CustomerRef: c.Request().Header.Get(headerCustomerRef),
				Role:        Role(c.Request().Header.Get(headerActorRole)),
			}
			if a.Role == "" {
				a.Role = RoleCustomer
			}
			c.Set(contextKey, a)
			return next(c)
		}
	}
}

// FromContext returns the actor attached by Middleware, if any.
func FromContext(c echo.Context) Actor {
	if a, ok := c.Get(contextKey).(Actor); ok {
		return a
	}
	return Actor{}
}
