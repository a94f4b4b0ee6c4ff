// Package auth implements credential handling and JWT-based session
// management: bcrypt password hashing and verification, token issuance and
// validation, and an HTTP middleware that resolves the caller identity from
// the Authorization header.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/airpoints/internal/logger"
	"github.com/patric-chuzhbe/airpoints/internal/models"
)

// HashCost is the bcrypt work factor, matching the source system.
const HashCost = 10

// Claims is the fixed identity claim set embedded into issued tokens.
// The shape has varied across source versions; optional fields are simply
// omitted from the encoded token when empty.
type Claims struct {
	jwt.RegisteredClaims
	UserID             string   `json:"id"`
	UserName           string   `json:"userName"`
	Email              string   `json:"email,omitempty"`
	Nationality        string   `json:"nationality,omitempty"`
	MainAirport        string   `json:"mainAirport,omitempty"`
	PreferredCarriers  []string `json:"preferenceCarrier,omitempty"`
	PreferredAlliances []string `json:"preferenceAlliance,omitempty"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key used to store and retrieve the authenticated
// user's ID.
const UserIDKey ContextKey = "userID"

// Auth issues and verifies bearer tokens and hashes passwords.
type Auth struct {
	// scheme is the Authorization scheme string, e.g. "JWT". Extraction
	// accepts only the scheme the issuer used.
	scheme string

	// signingSecretKey is the HMAC key used to sign tokens.
	signingSecretKey []byte

	// hashCost is the bcrypt work factor; tests lower it.
	hashCost int
}

// New creates an Auth with the given Authorization scheme and signing secret.
func New(scheme string, signingSecretKey []byte) *Auth {
	return &Auth{
		scheme:           scheme,
		signingSecretKey: signingSecretKey,
		hashCost:         HashCost,
	}
}

// WithHashCost overrides the bcrypt work factor. Intended for tests.
func (a *Auth) WithHashCost(cost int) *Auth {
	a.hashCost = cost
	return a
}

// HashPassword returns the salted one-way hash of the plaintext password.
func (a *Auth) HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), a.hashCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash,
// using bcrypt's own comparison primitive.
func (a *Auth) VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// BuildTokenString signs the claims with the server secret. No expiry claim
// is set, matching the source system's behavior.
func (a *Auth) BuildTokenString(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	tokenString, err := token.SignedString(a.signingSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseTokenString validates the signature and returns the embedded claims.
// Any decode or signature failure yields models.ErrUnauthenticated.
func (a *Auth) ParseTokenString(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingSecretKey, nil
		},
	)
	if err != nil || !token.Valid {
		return nil, models.ErrUnauthenticated
	}

	return claims, nil
}

// AuthenticateUser is an HTTP middleware that resolves the caller identity
// from the Authorization header and stores the user ID in the request
// context. Requests without a valid token are rejected with 401.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		tokenString, err := a.getTokenStringFromAuthorizationHeader(request)
		if err != nil {
			response.WriteHeader(http.StatusUnauthorized)
			return
		}

		claims, err := a.ParseTokenString(tokenString)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.ParseTokenString()`: ", zap.Error(err))
			response.WriteHeader(http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, claims.UserID)
		requestWithCtx := request.WithContext(ctx)

		h.ServeHTTP(response, requestWithCtx)
	}

	return http.HandlerFunc(middleware)
}

func (a *Auth) getTokenStringFromAuthorizationHeader(request *http.Request) (string, error) {
	header := request.Header.Get("Authorization")
	if header == "" {
		return "", models.ErrUnauthenticated
	}

	scheme, tokenString, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, a.scheme) || tokenString == "" {
		return "", models.ErrUnauthenticated
	}

	return tokenString, nil
}
