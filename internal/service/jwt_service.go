package service

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

// TokenVerifier valida tokens de acceso emitidos por otro servicio. Aquí solo se
// consumen: la emisión de credenciales vive fuera de este servicio.
type TokenVerifier interface {
	ParseAccessToken(token string) (Claims, error)
}

type Claims struct {
	UserID    string `json:"uid"`
	TokenType string `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// JWTService verifica tokens HS256 con un secreto compartido.
type JWTService struct {
	secret []byte
	issuer string
}

// NewJWTService con issuer vacío acepta cualquier emisor.
func NewJWTService(secret, issuer string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
	}
}

func (s *JWTService) ParseAccessToken(accessToken string) (Claims, error) {
	if s == nil || len(s.secret) == 0 {
		return Claims{}, ErrJWTInvalid
	}
	if strings.TrimSpace(accessToken) == "" {
		return Claims{}, ErrJWTInvalid
	}
	claims, err := s.parseToken(accessToken)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != "" && claims.TokenType != "access" {
		return Claims{}, ErrJWTInvalid
	}
	if !s.isValidClaims(claims) {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *JWTService) parseToken(tokenString string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

// isValidClaims exige uid y, si viene sub, que coincida con uid.
func (s *JWTService) isValidClaims(claims Claims) bool {
	if strings.TrimSpace(claims.UserID) == "" {
		return false
	}
	if claims.Subject != "" && claims.Subject != claims.UserID {
		return false
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return false
	}
	return true
}
