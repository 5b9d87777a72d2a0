package corspolicy

import (
	"errors"
	"maps"
	"net/http"
)

// errResponseRejected is returned by the Write method of the response
// writer passed to a wrapped handler once the response has been replaced
// by a rejection.
var errResponseRejected = errors.New("corspolicy: response discarded after CORS rejection")

// An interceptor defers the writing of a response's status and headers
// until the first commit point (the first call to Write or Flush, or the
// return of the wrapped handler), at which point it runs the middleware's
// late hook. Until then, the wrapped handler works on a private copy of
// the response's header map, so that a rejection can discard everything
// the handler has set.
type interceptor struct {
	w      http.ResponseWriter
	r      *http.Request
	st     *requestState
	m      *Middleware
	hdr    http.Header // private until commit, then w's own header map
	status int         // status recorded before commit; 0 if none

	rejected bool
}

func newInterceptor(w http.ResponseWriter, r *http.Request, st *requestState, m *Middleware) *interceptor {
	return &interceptor{
		w:   w,
		r:   r,
		st:  st,
		m:   m,
		hdr: w.Header().Clone(),
	}
}

func (iw *interceptor) Header() http.Header {
	return iw.hdr
}

func (iw *interceptor) WriteHeader(statusCode int) {
	if !iw.st.committed {
		if iw.status == 0 {
			iw.status = statusCode
		}
		return
	}
	if iw.rejected {
		return
	}
	iw.w.WriteHeader(statusCode)
}

func (iw *interceptor) Write(b []byte) (int, error) {
	iw.commit()
	if iw.rejected {
		return 0, errResponseRejected
	}
	return iw.w.Write(b)
}

// Flush implements [http.Flusher].
func (iw *interceptor) Flush() {
	iw.commit()
	if iw.rejected {
		return
	}
	http.NewResponseController(iw.w).Flush()
}

// Unwrap returns the underlying [http.ResponseWriter],
// for use by [http.ResponseController].
func (iw *interceptor) Unwrap() http.ResponseWriter {
	return iw.w
}

// commit runs the late hook, if it has not run yet, and then either
// writes the handler's status and headers or replaces the response
// with a rejection.
func (iw *interceptor) commit() {
	if iw.st.committed {
		return
	}
	iw.st.committed = true
	err := iw.m.lateHook(iw.r, iw.st, iw.hdr)
	dst := iw.w.Header()
	clear(dst)
	if err != nil {
		iw.rejected = true
		WriteError(iw.w, err)
		return
	}
	maps.Copy(dst, iw.hdr)
	iw.hdr = dst
	if iw.status != 0 {
		iw.w.WriteHeader(iw.status)
	}
}
