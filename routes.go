package corspolicy

import (
	"fmt"
	"net/http"

	"github.com/jub0bs/corspolicy/internal/headers"
	"github.com/jub0bs/corspolicy/internal/methods"
)

// A RouteResolver returns the policy to enforce for r in place of a
// middleware's own policy, or nil if the middleware's own policy applies.
type RouteResolver func(r *http.Request) *Policy

// A RouteTable maps [http.ServeMux] patterns to policies,
// so that some routes can be subject to a narrower policy than the rest
// of a server. Its Resolve method is a [RouteResolver].
//
// The zero value is not usable; call [NewRouteTable].
// A RouteTable must not be modified once it is in use.
type RouteTable struct {
	mux      *http.ServeMux
	policies map[string]*Policy
}

// NewRouteTable returns an empty RouteTable.
func NewRouteTable() *RouteTable {
	return &RouteTable{
		mux:      http.NewServeMux(),
		policies: make(map[string]*Policy),
	}
}

// Add binds pattern, which follows the syntax of [http.ServeMux] patterns,
// to p. It fails if pattern is invalid or conflicts with a pattern
// already added to t.
func (t *RouteTable) Add(pattern string, p *Policy) (err error) {
	defer func() {
		// ServeMux reports invalid and conflicting patterns by panicking.
		if v := recover(); v != nil {
			err = fmt.Errorf("corspolicy: %v", v)
		}
	}()
	t.mux.Handle(pattern, http.NotFoundHandler())
	t.policies[pattern] = p
	return nil
}

// Len returns the number of routes in t.
func (t *RouteTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.policies)
}

// Resolve returns the policy bound to the pattern that matches r most
// specifically, or nil if none does.
// A preflight request is matched as if its method were the one listed
// in its Access-Control-Request-Method header, so that preflight requests
// resolve to the same route as the actual requests they precede.
func (t *RouteTable) Resolve(r *http.Request) *Policy {
	if t == nil || len(t.policies) == 0 {
		return nil
	}
	req := r
	if acrm, found := headers.First(r.Header, headers.ACRM); found && methods.IsOPTIONS(r.Method) {
		req = r.WithContext(r.Context()) // shallow copy
		req.Method = acrm
	}
	_, pattern := t.mux.Handler(req)
	return t.policies[pattern]
}
