// Package corsgin adapts a [corspolicy.Middleware] to the gin framework.
package corsgin

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jub0bs/corspolicy"
)

// New returns a gin middleware that enforces m's policy.
//
// Preflight requests, requests whose Origin header is malformed, and
// rejected requests abort the handler chain. Errors attached to the
// context (see [gin.Context.Error]) that are CORS rejections turn the
// response into a 403 response, provided the handlers have not written
// anything yet.
func New(m *corspolicy.Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		orig := c.Writer
		var reached bool
		next := func(w http.ResponseWriter, r *http.Request) {
			reached = true
			c.Request = r
			c.Writer = &responseWriter{ResponseWriter: orig, w: w}
			c.Next()
			for _, e := range c.Errors {
				if corspolicy.Reject(r, e.Err) {
					break
				}
			}
		}
		m.Wrap(http.HandlerFunc(next)).ServeHTTP(orig, c.Request)
		c.Writer = orig
		if !reached {
			c.Abort()
		}
	}
}

// responseWriter routes the writes of gin handlers through the
// middleware's response writer w. Hijacking, pushing, and close
// notification go straight to the underlying gin.ResponseWriter.
type responseWriter struct {
	gin.ResponseWriter
	w      http.ResponseWriter
	status int
}

func (rw *responseWriter) Header() http.Header {
	return rw.w.Header()
}

func (rw *responseWriter) WriteHeader(code int) {
	if code > 0 && rw.status == 0 {
		rw.status = code
	}
	rw.w.WriteHeader(code)
}

func (rw *responseWriter) WriteHeaderNow() {
	rw.w.Write(nil)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	return rw.w.Write(b)
}

func (rw *responseWriter) WriteString(s string) (int, error) {
	return io.WriteString(rw.w, s)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.w.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Status() int {
	if !rw.ResponseWriter.Written() && rw.status != 0 {
		return rw.status
	}
	return rw.ResponseWriter.Status()
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.w
}
