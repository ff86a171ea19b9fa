package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "relaychat/errors"
)

// TokenVerifier is the authentication collaborator: token issuance and
// login flows live entirely outside this system, the engine only needs
// a token resolved to a subject email.
type TokenVerifier interface {
	Verify(token string) (subjectEmail string, err error)
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256 tokens carrying the subject email.
type JWTVerifier struct {
	key    []byte
	issuer string
}

func NewJWTVerifier(key []byte, issuer string) *JWTVerifier {
	return &JWTVerifier{key: key, issuer: issuer}
}

// Verify parses and validates a token and returns the subject email.
// Every failure mode collapses to ErrInvalidToken.
func (v *JWTVerifier) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", apperrors.ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Email == "" {
		return "", apperrors.ErrInvalidToken
	}
	return claims.Email, nil
}

// Issue signs a token for a subject email. Issuance is an external
// concern; this exists for the local verifier's tests and tooling.
func (v *JWTVerifier) Issue(email string, ttl time.Duration) (string, error) {
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    v.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.key)
}
