package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// operatorRole is the only role the engine issues. There is no user
// table: a token simply proves the holder passed the operator login.
const operatorRole = "operator"

const tokenLifetime = 24 * time.Hour

type JWTService struct {
	secretKey []byte
}

func NewJWTService(secretKey string) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
	}
}

// OperatorClaims identify the single configured operator.
type OperatorClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (s *JWTService) GenerateToken(email string) (string, error) {
	now := time.Now()
	claims := OperatorClaims{
		Email: email,
		Role:  operatorRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    "applyflow",
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

func (s *JWTService) ValidateToken(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Role != operatorRole {
		return nil, fmt.Errorf("token does not carry the operator role")
	}
	return claims, nil
}
