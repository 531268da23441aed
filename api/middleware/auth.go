/*
Copyright 2026 NexusBank Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/nexusbank/nexus/config"
)

const callerKey = "nexus.caller"

// Claims are the token claims issued by the identity provider: the subject
// uid plus a boolean admin flag.
type Claims struct {
	UID   string `json:"uid"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Caller is the verified identity extracted from the bearer token.
type Caller struct {
	UID   string
	Admin bool
}

// Authenticate verifies the Authorization bearer token and attaches the
// caller identity to the request context.
//
// Responses:
// - 401 Unauthorized: When the token is missing, malformed or invalid.
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		conf, err := config.Fetch()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Auth is not configured"})
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid authorization header"})
			return
		}

		claims, err := validateToken(parts[1], conf.Auth)
		if err != nil {
			logrus.Warnf("token verification failed: %v", err)
			if strings.Contains(err.Error(), "expired") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired. Please login again."})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid token"})
			return
		}

		c.Set(callerKey, Caller{UID: claims.UID, Admin: claims.Admin})
		c.Next()
	}
}

// RequireAdmin rejects callers whose token does not carry the admin claim.
// Must run after Authenticate.
//
// Responses:
// - 403 Forbidden: When the admin claim is absent.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok || !caller.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: Admin access required"})
			return
		}
		c.Next()
	}
}

// GetCaller returns the identity set by Authenticate.
func GetCaller(c *gin.Context) (Caller, bool) {
	value, exists := c.Get(callerKey)
	if !exists {
		return Caller{}, false
	}
	caller, ok := value.(Caller)
	return caller, ok
}

func validateToken(tokenString string, auth config.AuthConfig) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(auth.Secret), nil
	}, jwt.WithIssuer(auth.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UID == "" {
		return nil, jwt.ErrTokenRequiredClaimMissing
	}
	return claims, nil
}
