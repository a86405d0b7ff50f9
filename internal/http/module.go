// Package http holds the contract between the router and the bounded context
// modules (leads, webhook, settings).
package http

import "github.com/gin-gonic/gin"

// Module mounts one bounded context's routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the route groups a module may mount on.
type RouterContext struct {
	// V1 is /api/v1 without authentication; webhook intake brings its own.
	V1        *gin.RouterGroup
	// Protected is /api/v1 behind the operator JWT.
	Protected *gin.RouterGroup
	// Admin is /api/v1/admin behind the JWT and the admin role.
	Admin     *gin.RouterGroup
}
