package middleware

import (
	"github.com/gin-gonic/gin"

	midsec "github.com/ishaan-vashist/chatcraft-ai/middleware/security"
	"github.com/ishaan-vashist/chatcraft-ai/service/chat"
)

// RouteOpt controls per-route behavior.
type RouteOpt struct {
	IsAuth bool
}

// Router registers routes with an optional auth gate. One Router is built at
// bootstrap with the token verifier and shared by every module's routes.
type Router struct {
	r    gin.IRoutes
	auth gin.HandlerFunc
}

func NewRouter(r gin.IRoutes, verifier chat.TokenVerifier) *Router {
	return &Router{r: r, auth: midsec.Middleware(verifier)}
}

func (rt *Router) POST(path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		rt.r.POST(path, rt.auth, handler)
	} else {
		rt.r.POST(path, handler)
	}
}

func (rt *Router) GET(path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		rt.r.GET(path, rt.auth, handler)
	} else {
		rt.r.GET(path, handler)
	}
}
