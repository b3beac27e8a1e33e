// Package auth 校验请求携带的 JWT 并解析出当前用户。
package auth

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/auth/jwt"
	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
	"github.com/iWorld-y/report_radar/app/studio/internal/conf"
)

const defaultKey = "default-secret"

// Claims 登录服务签发的令牌内容
type Claims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	jwtv5.RegisteredClaims
}

// Key 返回签名密钥，未配置时使用默认值
func Key(c *conf.Auth) []byte {
	if c != nil && c.JwtKey != "" {
		return []byte(c.JwtKey)
	}
	return []byte(defaultKey)
}

// Server 校验 HS256 签名的 Bearer 令牌
func Server(c *conf.Auth) middleware.Middleware {
	key := Key(c)
	return jwt.Server(
		func(*jwtv5.Token) (interface{}, error) { return key, nil },
		jwt.WithSigningMethod(jwtv5.SigningMethodHS256),
		jwt.WithClaims(func() jwtv5.Claims { return &Claims{} }),
	)
}

// ViewerFromContext 取出当前请求的用户
func ViewerFromContext(ctx context.Context) (model.Viewer, bool) {
	claims, ok := jwt.FromContext(ctx)
	if !ok {
		return model.Viewer{}, false
	}
	c, ok := claims.(*Claims)
	if !ok || c.UserID == 0 {
		return model.Viewer{}, false
	}
	return model.Viewer{UserID: c.UserID, Username: c.Username, Role: c.Role}, true
}

// Sign 签发令牌，用于联调与测试
func Sign(c *conf.Auth, v model.Viewer, ttl time.Duration) (string, error) {
	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, &Claims{
		UserID:   v.UserID,
		Username: v.Username,
		Role:     v.Role,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(ttl)),
		},
	})
	return token.SignedString(Key(c))
}
