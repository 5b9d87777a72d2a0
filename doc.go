/*
Package corspolicy provides [net/http] middleware for
[Cross-Origin Resource Sharing (CORS)].

A [Policy], compiled from a [Config], decides whether a request is
cross-origin ([IsCORSRequest]) or a [CORS-preflight request]
([IsPreflightRequest]), which origins it allows ([Policy.ResolveAllowedOrigin]),
and which headers responses must carry ([Policy.PreflightHeaders],
[Policy.Annotate]). A [Middleware] enforces a policy in front of a
[http.Handler]:

  - Requests without an Origin header, and requests whose Origin header
    denotes the request's own origin, reach the handler untouched.
  - Requests whose Origin header is malformed (e.g. "file:") get a 400
    response with an empty body.
  - Preflight requests never reach the handler: they get either a 200
    response with an empty body and the Access-Control-* headers that the
    policy prescribes, or a 403 response.
  - Other cross-origin requests reach the handler; once it commits its
    response, that response is annotated with the appropriate
    Access-Control-* headers or, if the request's origin is not allowed,
    discarded in favor of a 403 response whose body names the offending
    origin. Handlers can report a CORS rejection of their own via [Reject].

Because preflight requests use OPTIONS as their method,
you should not prevent OPTIONS requests from reaching your CORS middleware.
Because preflight requests are not authenticated, authentication should not
take place "ahead of" a CORS middleware. Multiple CORS middleware
must not be stacked.

Policies can also be loaded from a YAML document ([LoadConfig]),
which may bind narrower policies to some routes ([RouteTable]).
Packages [github.com/jub0bs/corspolicy/corsgin] and
[github.com/jub0bs/corspolicy/corsecho] adapt a [Middleware] to
the gin and echo frameworks.

[CORS-preflight request]: https://developer.mozilla.org/en-US/docs/Glossary/Preflight_request
[Cross-Origin Resource Sharing (CORS)]: https://developer.mozilla.org/en-US/docs/Web/HTTP/CORS
*/
package corspolicy
