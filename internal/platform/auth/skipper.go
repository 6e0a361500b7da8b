package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists route templates that bypass authentication: infrastructure
// endpoints, identity bootstrap, and the anonymous health pass view.
var publicPaths = map[string]bool{
	"/health":                                  true,
	"/health/db":                               true,
	"/metrics":                                 true,
	"/api/v1/auth/verify-id":                   true,
	"/api/v1/auth/refresh":                     true,
	"/api/v1/health-passes/access/:accessCode": true,
}

// AuthSkipper returns true for requests whose route should skip authentication.
// It matches on the route template, so it must run after routing (group or
// route middleware, not e.Pre).
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given route template is public.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
