package service

import (
	"time"

	"github.com/edupass/internal/config"
	"github.com/edupass/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPayload 已签发的会话令牌
type TokenPayload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenIssuer 令牌签发接口
// 返回 nil 载荷表示签发失败，是预期内的失败而不是异常
type TokenIssuer interface {
	IssueToken(account *models.Account) (*TokenPayload, error)
}

// AccountClaims 账号 JWT 声明
type AccountClaims struct {
	AccountID    uint   `json:"account_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// JWTTokenService 基于 HS256 的令牌服务
type JWTTokenService struct {
	cfg config.JWTConfig
}

// NewJWTTokenService 创建令牌服务
func NewJWTTokenService(cfg config.JWTConfig) *JWTTokenService {
	return &JWTTokenService{cfg: cfg}
}

// IssueToken 为已认证账号签发 JWT
func (s *JWTTokenService) IssueToken(account *models.Account) (*TokenPayload, error) {
	if account == nil {
		return nil, nil
	}
	expireHours := s.cfg.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(expireHours) * time.Hour)
	claims := AccountClaims{
		AccountID:    account.ID,
		Email:        account.Email,
		Role:         account.Role,
		TokenVersion: account.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}
	return &TokenPayload{Token: tokenString, ExpiresAt: expiresAt}, nil
}

// ParseToken 解析并校验 JWT
func (s *JWTTokenService) ParseToken(tokenString string) (*AccountClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &AccountClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if parsed, ok := token.Claims.(*AccountClaims); ok && token.Valid {
		return parsed, nil
	}
	return nil, ErrTokenInvalid
}
