// Package corsecho adapts a [corspolicy.Middleware] to the echo framework.
package corsecho

import (
	"net/http"

	"github.com/jub0bs/corspolicy"
	"github.com/labstack/echo/v4"
)

// New returns an echo middleware that enforces m's policy.
//
// Preflight requests and requests whose Origin header is malformed never
// reach the next handler. A CORS rejection returned by the next handler
// (a *[corspolicy.DisallowedOriginError] or a
// *[corspolicy.DisallowedMethodError]) turns the response into a 403
// response, provided the handler has not written anything yet;
// other errors are passed on to echo's error handler.
func New(m *corspolicy.Middleware) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			res := c.Response()
			h := func(w http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)
				c.SetResponse(echo.NewResponse(w, c.Echo()))
				err = next(c)
				if err != nil && corspolicy.Reject(r, err) {
					err = nil
				}
			}
			m.Wrap(http.HandlerFunc(h)).ServeHTTP(res, c.Request())
			c.SetResponse(res)
			return err
		}
	}
}
