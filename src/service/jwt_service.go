package service

import (
	"fmt"
	"time"

	"todo-app/src/config"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims JWT内のカスタムクレーム
type JWTClaims struct {
	UserID int    `json:"user_id"`
	Type   string `json:"type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// JWTService JWT管理サービスのインターフェース
type JWTService interface {
	GenerateAccessToken(userID int) (string, error)
	GenerateRefreshToken(userID int) (string, error)
	ValidateAccessToken(tokenString string) (int, error)
	ValidateRefreshToken(tokenString string) (*JWTClaims, error)
}

// jwtService JWT管理サービスの実装
type jwtService struct {
	config *config.Config
}

// NewJWTService JWT管理サービスを作成
func NewJWTService(cfg *config.Config) JWTService {
	return &jwtService{config: cfg}
}

// GenerateAccessToken アクセストークンを生成
func (s *jwtService) GenerateAccessToken(userID int) (string, error) {
	return s.generate(userID, "access", s.config.Auth.JWTExpiresIn)
}

// GenerateRefreshToken リフレッシュトークンを生成
func (s *jwtService) GenerateRefreshToken(userID int) (string, error) {
	return s.generate(userID, "refresh", s.config.Auth.RefreshExpiresIn)
}

func (s *jwtService) generate(userID int, tokenType string, expiresIn time.Duration) (string, error) {
	claims := &JWTClaims{
		UserID: userID,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "todo-app",
			Subject:   fmt.Sprintf("user:%d", userID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Auth.JWTSecret))
}

func (s *jwtService) parse(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Auth.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// ValidateAccessToken アクセストークンを検証してユーザーIDを返す
func (s *jwtService) ValidateAccessToken(tokenString string) (int, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return 0, err
	}

	if claims.Type != "access" {
		return 0, fmt.Errorf("invalid token type")
	}

	return claims.UserID, nil
}

// ValidateRefreshToken リフレッシュトークンを検証
func (s *jwtService) ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.Type != "refresh" {
		return nil, fmt.Errorf("invalid token type")
	}

	return claims, nil
}
