package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	chatmodel "github.com/ishaan-vashist/chatcraft-ai/module/chat/model"
	"github.com/ishaan-vashist/chatcraft-ai/service/chat"
	"github.com/ishaan-vashist/chatcraft-ai/tools/errs"
)

// Context key the verified identity is stored under.
const ctxIdentityKey = "authIdentity"

// Middleware authenticates "Authorization: Bearer <token>" and puts the
// verified identity into the gin context. Requests without a valid token are
// rejected before the handler runs.
func Middleware(verifier chat.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortAuth(c, errs.ErrAuth.WrapMsg("missing bearer token"))
			return
		}
		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			abortAuth(c, err)
			return
		}
		c.Set(ctxIdentityKey, id)
		c.Next()
	}
}

// IdentityFromContext reads the identity Middleware stored. ok is false on
// routes that never went through Middleware.
func IdentityFromContext(c *gin.Context) (chatmodel.Identity, bool) {
	v, exists := c.Get(ctxIdentityKey)
	if !exists {
		return chatmodel.Identity{}, false
	}
	id, ok := v.(chatmodel.Identity)
	return id, ok
}

func bearerToken(c *gin.Context) string {
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if authz == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[len("bearer "):])
}

func abortAuth(c *gin.Context, err error) {
	ce := errs.AsCodeError(err)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    ce.Kind,
		"message": ce.Msg,
	})
}
