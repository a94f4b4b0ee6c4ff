package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/airpoints/internal/logger"
	"github.com/patric-chuzhbe/airpoints/internal/models"
)

func newTestAuth() *Auth {
	return New("JWT", []byte("test-signing-key")).WithHashCost(bcrypt.MinCost)
}

func TestHashAndVerifyPassword(t *testing.T) {
	theAuth := newTestAuth()

	hash, err := theAuth.HashPassword("p1")
	require.NoError(t, err)
	assert.NotEqual(t, "p1", hash)

	assert.True(t, theAuth.VerifyPassword("p1", hash))
	assert.False(t, theAuth.VerifyPassword("wrong", hash))
}

func TestHashPasswordIsSalted(t *testing.T) {
	theAuth := newTestAuth()

	first, err := theAuth.HashPassword("p1")
	require.NoError(t, err)
	second, err := theAuth.HashPassword("p1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenRoundTrip(t *testing.T) {
	theAuth := newTestAuth()

	claims := &Claims{
		UserID:             "user-1",
		UserName:           "alice",
		Email:              "a@x.com",
		Nationality:        "CA",
		MainAirport:        "YYZ",
		PreferredCarriers:  []string{"AC"},
		PreferredAlliances: []string{"Star Alliance"},
	}

	tokenString, err := theAuth.BuildTokenString(claims)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	parsed, err := theAuth.ParseTokenString(tokenString)
	require.NoError(t, err)
	assert.Equal(t, claims, parsed)
}

func TestParseTokenFailsClosed(t *testing.T) {
	theAuth := newTestAuth()

	tokenString, err := theAuth.BuildTokenString(&Claims{UserID: "user-1", UserName: "alice"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		auth  *Auth
	}{
		{
			name:  "different signing key",
			token: tokenString,
			auth:  New("JWT", []byte("another-key")),
		},
		{
			name:  "malformed token",
			token: "not-a-token",
			auth:  theAuth,
		},
		{
			name:  "empty token",
			token: "",
			auth:  theAuth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.auth.ParseTokenString(tt.token)
			assert.ErrorIs(t, err, models.ErrUnauthenticated)
		})
	}
}

func TestAuthenticateUserMiddleware(t *testing.T) {
	require.NoError(t, logger.Init("debug"))

	theAuth := newTestAuth()

	tokenString, err := theAuth.BuildTokenString(&Claims{UserID: "user-1", UserName: "alice"})
	require.NoError(t, err)

	var seenUserID string
	handler := theAuth.AuthenticateUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID, _ = r.Context().Value(UserIDKey).(string)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name               string
		authorization      string
		expectedStatusCode int
		expectedUserID     string
	}{
		{
			name:               "valid token with the issuer scheme",
			authorization:      "JWT " + tokenString,
			expectedStatusCode: http.StatusOK,
			expectedUserID:     "user-1",
		},
		{
			name:               "scheme mismatch",
			authorization:      "Bearer " + tokenString,
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "missing header",
			authorization:      "",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "scheme without token",
			authorization:      "JWT",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "tampered token",
			authorization:      "JWT " + tokenString + "x",
			expectedStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenUserID = ""

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authorization != "" {
				request.Header.Set("Authorization", tt.authorization)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.expectedStatusCode, recorder.Code)
			assert.Equal(t, tt.expectedUserID, seenUserID)
		})
	}
}
