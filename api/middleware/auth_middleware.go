// api/middleware/auth_middleware.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-query-gateway/internal/auth"
	"github.com/Annany2002/nebula-query-gateway/internal/logger"
)

// CredentialKey is the gin context key holding the resolved auth.Credential.
const CredentialKey = "credential"

var (
	customLog = logger.NewLogger()
)

// APIKeyAuth resolves the bearer token against the configured API keys and
// stores the credential in the context. Requests without a usable key are
// aborted before the body is read.
func APIKeyAuth(resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential, err := resolver.Resolve(c.GetHeader("Authorization"))
		if err != nil {
			customLog.WithField("request_id", c.GetString(RequestIDKey)).
				Warnf("APIKeyAuth: Authentication failed: %v", err)
			_ = c.Error(err)
			c.Abort()
			return
		}

		customLog.WithField("request_id", c.GetString(RequestIDKey)).
			Debugf("APIKeyAuth: Authenticated with %s key", credential)
		c.Set(CredentialKey, credential)
		c.Next()
	}
}

// CredentialFrom returns the credential stored by APIKeyAuth.
func CredentialFrom(c *gin.Context) auth.Credential {
	v, ok := c.Get(CredentialKey)
	if !ok {
		return auth.CredentialNone
	}
	credential, _ := v.(auth.Credential)
	return credential
}
