package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"onprem-cd/pkg/responses"
)

// AgentClaims agent 访问令牌, Subject 为订阅方 UUID, ID 为令牌ID(用于吊销)
type AgentClaims struct {
	SubscriberID int64 `json:"subscriber_id"`
	jwt.RegisteredClaims
}

// Signer agent 令牌签发与校验
type Signer struct {
	secret []byte
	issuer string
}

// NewSigner 创建签发器
func NewSigner(secret, issuer string) *Signer {
	return &Signer{secret: []byte(secret), issuer: issuer}
}

// GenerateAgentToken 为订阅方签发长期令牌, 令牌随 chart 下发到客户环境
func (s *Signer) GenerateAgentToken(subscriberID int64, subscriberUUID, tokenID string) (string, error) {
	claims := AgentClaims{
		SubscriberID: subscriberID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       tokenID,
			Subject:  subscriberUUID,
			Issuer:   s.issuer,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken 解析Token
func (s *Signer) ParseToken(tokenString string) (*AgentClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AgentClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名方法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))

	if err != nil {
		return nil, responses.Wrap(responses.CodeUnauthorized, "解析Token失败", err)
	}

	if claims, ok := token.Claims.(*AgentClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, responses.ErrInvalidToken
}
