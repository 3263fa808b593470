package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alfredoT7/io2-back/internal/config"
)

// Claims JWT 载荷：用户标识 + 角色，供路由层做权限判断
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken 生成 JWT，有效期取配置（默认 24 小时）
func GenerateToken(cfg *config.JWTConfig, userID int64, email, role string) (string, error) {
	expire := time.Duration(cfg.ExpireHours) * time.Hour
	if cfg.ExpireHours <= 0 {
		expire = 24 * time.Hour
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ParseToken 解析 JWT
func ParseToken(cfg *config.JWTConfig, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
