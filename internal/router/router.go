// Package router maps the HTTP surface onto the service layer: registration
// and login, the authenticated profile/password/list endpoints, the
// third-party data proxies and the store health check.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/airpoints/internal/auth"
	"github.com/patric-chuzhbe/airpoints/internal/gzippedhttp"
	"github.com/patric-chuzhbe/airpoints/internal/logger"
	"github.com/patric-chuzhbe/airpoints/internal/models"
	"github.com/patric-chuzhbe/airpoints/internal/user"
)

type userService interface {
	Register(ctx context.Context, req models.RegisterRequest) (string, error)

	Authenticate(ctx context.Context, userName, password string) (*user.User, error)

	GetByID(ctx context.Context, userID string) (*user.User, error)

	UpdateProfile(ctx context.Context, userID string, req models.ProfileUpdateRequest) (*user.User, error)

	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (string, error)

	GetComparisonList(ctx context.Context, userID string) ([]string, error)
	AddToComparisonList(ctx context.Context, userID, itemID string) ([]string, error)
	RemoveFromComparisonList(ctx context.Context, userID, itemID string) ([]string, error)

	GetHistory(ctx context.Context, userID string) ([]user.HistoryEntry, error)
	AddToHistory(ctx context.Context, userID string, entry user.HistoryEntry) ([]user.HistoryEntry, error)
	RemoveFromHistory(ctx context.Context, userID, entryID string) ([]user.HistoryEntry, error)

	Ping(ctx context.Context) error
}

type tokenIssuer interface {
	BuildTokenString(claims *auth.Claims) (string, error)
}

type authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
}

type airportLookuper interface {
	AirportByIATA(ctx context.Context, iata string) ([]byte, int, error)
	Countries(ctx context.Context) ([]byte, int, error)
}

// Router holds the HTTP handlers of the service.
type Router struct {
	service  userService
	issuer   tokenIssuer
	airports airportLookuper
}

// New assembles the chi router with the middleware chain and all routes.
func New(
	service userService,
	theAuth *auth.Auth,
	airports airportLookuper,
) *chi.Mux {
	myRouter := &Router{
		service:  service,
		issuer:   theAuth,
		airports: airports,
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		gzippedhttp.UngzipRequest,
		gzippedhttp.GzipResponse,
	)

	router.Post(`/api/user/register`, myRouter.PostApiuserregister)
	router.Post(`/api/user/login`, myRouter.PostApiuserlogin)

	router.Group(func(authenticated chi.Router) {
		authenticated.Use(theAuth.AuthenticateUser)

		authenticated.Get(`/api/user/profile`, myRouter.GetApiuserprofile)
		authenticated.Put(`/api/user/profile`, myRouter.PutApiuserprofile)
		authenticated.Put(`/api/user/password`, myRouter.PutApiuserpassword)

		authenticated.Get(`/api/user/comparison`, myRouter.GetApiusercomparison)
		authenticated.Put(`/api/user/comparison/{itemID}`, myRouter.PutApiusercomparison)
		authenticated.Delete(`/api/user/comparison/{itemID}`, myRouter.DeleteApiusercomparison)

		authenticated.Get(`/api/user/history`, myRouter.GetApiuserhistory)
		authenticated.Put(`/api/user/history`, myRouter.PutApiuserhistory)
		authenticated.Delete(`/api/user/history/{entryID}`, myRouter.DeleteApiuserhistory)
	})

	router.Get(`/calculator`, myRouter.GetCalculator)
	router.Get(`/countries`, myRouter.GetCountries)
	router.Get(`/ping`, myRouter.GetPing)

	return router
}

// PostApiuserregister handles new user registration.
func (theRouter *Router) PostApiuserregister(response http.ResponseWriter, request *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(request.Body).Decode(&req); err != nil {
		writeError(response, http.StatusUnprocessableEntity, "malformed request body")
		return
	}

	message, err := theRouter.service.Register(request.Context(), req)
	if err != nil {
		writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.MessageResponse{Message: message})
}

// PostApiuserlogin verifies credentials and issues a signed token carrying
// the identity claims.
func (theRouter *Router) PostApiuserlogin(response http.ResponseWriter, request *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(request.Body).Decode(&req); err != nil {
		writeError(response, http.StatusUnprocessableEntity, "malformed request body")
		return
	}

	usr, err := theRouter.service.Authenticate(request.Context(), req.UserName, req.Password)
	if err != nil {
		// An unknown user and a bad password are indistinguishable to the
		// client, so user names cannot be enumerated through this endpoint.
		if errors.Is(err, models.ErrUserNotFound) || errors.Is(err, models.ErrIncorrectPassword) {
			writeError(response, http.StatusUnauthorized, models.ErrIncorrectPassword.Error())
			return
		}
		writeServiceError(response, err)
		return
	}

	tokenString, err := theRouter.issuer.BuildTokenString(&auth.Claims{
		UserID:             usr.ID,
		UserName:           usr.UserName,
		Email:              usr.Email,
		Nationality:        usr.Nationality,
		MainAirport:        usr.MainAirport,
		PreferredCarriers:  usr.PreferredCarriers,
		PreferredAlliances: usr.PreferredAlliances,
	})
	if err != nil {
		logger.Log.Debugln("Error calling the `theRouter.issuer.BuildTokenString()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusOK, models.LoginResponse{
		Message: "login successful",
		Token:   tokenString,
	})
}

// GetApiuserprofile returns the authenticated user's profile.
func (theRouter *Router) GetApiuserprofile(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromContext(request)
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	usr, err := theRouter.service.GetByID(request.Context(), userID)
	if err != nil {
		writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, profileResponseFromUser(usr))
}

// PutApiuserprofile applies a partial profile update.
func (theRouter *Router) PutApiuserprofile(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromContext(request)
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req models.ProfileUpdateRequest
	if err := json.NewDecoder(request.Body).Decode(&req); err != nil {
		writeError(response, http.StatusUnprocessableEntity, "malformed request body")
		return
	}

	usr, err := theRouter.service.UpdateProfile(request.Context(), userID, req)
	if err != nil {
		writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, profileResponseFromUser(usr))
}

// PutApiuserpassword changes the authenticated user's password.
func (theRouter *Router) PutApiuserpassword(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromContext(request)
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req models.PasswordChangeRequest
	if err := json.NewDecoder(request.Body).Decode(&req); err != nil {
		writeError(response, http.StatusUnprocessableEntity, "malformed request body")
		return
	}

	message, err := theRouter.service.ChangePassword(request.Context(), userID, req.OldPassword, req.NewPassword)
	if err != nil {
		writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.MessageResponse{Message: message})
}

// GetApiusercomparison returns the comparison list.
func (theRouter *Router) GetApiusercomparison(response http.ResponseWriter, request *http.Request) {
	theRouter.respondWithComparisonList(response, request, theRouter.service.GetComparisonList)
}

// PutApiusercomparison adds an item to the comparison list and returns the
// updated list.
func (theRouter *Router) PutApiusercomparison(response http.ResponseWriter, request *http.Request) {
	itemID := chi.URLParam(request, "itemID")
	theRouter.respondWithComparisonList(
		response,
		request,
		func(ctx context.Context, userID string) ([]string, error) {
			return theRouter.service.AddToComparisonList(ctx, userID, itemID)
		},
	)
}

// DeleteApiusercomparison removes an item from the comparison list and
// returns the updated list.
func (theRouter *Router) DeleteApiusercomparison(response http.ResponseWriter, request *http.Request) {
	itemID := chi.URLParam(request, "itemID")
	theRouter.respondWithComparisonList(
		response,
		request,
		func(ctx context.Context, userID string) ([]string, error) {
			return theRouter.service.RemoveFromComparisonList(ctx, userID, itemID)
		},
	)
}

// GetApiuserhistory returns the history list.
func (theRouter *Router) GetApiuserhistory(response http.ResponseWriter, request *http.Request) {
	theRouter.respondWithHistory(response, request, theRouter.service.GetHistory)
}

// PutApiuserhistory appends a comparison snapshot to the history and returns
// the updated list.
func (theRouter *Router) PutApiuserhistory(response http.ResponseWriter, request *http.Request) {
	var entry user.HistoryEntry
	if err := json.NewDecoder(request.Body).Decode(&entry); err != nil {
		writeError(response, http.StatusUnprocessableEntity, "malformed request body")
		return
	}

	theRouter.respondWithHistory(
		response,
		request,
		func(ctx context.Context, userID string) ([]user.HistoryEntry, error) {
			return theRouter.service.AddToHistory(ctx, userID, entry)
		},
	)
}

// DeleteApiuserhistory removes the entry with the given ID from the history
// and returns the updated list.
func (theRouter *Router) DeleteApiuserhistory(response http.ResponseWriter, request *http.Request) {
	entryID := chi.URLParam(request, "entryID")
	theRouter.respondWithHistory(
		response,
		request,
		func(ctx context.Context, userID string) ([]user.HistoryEntry, error) {
			return theRouter.service.RemoveFromHistory(ctx, userID, entryID)
		},
	)
}

// GetCalculator proxies the airport lookup for the given IATA code.
func (theRouter *Router) GetCalculator(response http.ResponseWriter, request *http.Request) {
	iata := request.URL.Query().Get("iata")
	if iata == "" {
		writeError(response, http.StatusBadRequest, "Missing required parameter: iata")
		return
	}

	body, statusCode, err := theRouter.airports.AirportByIATA(request.Context(), iata)
	if err != nil {
		logger.Log.Debugln("Error calling the `theRouter.airports.AirportByIATA()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	_, _ = response.Write(body)
}

// GetCountries proxies the country list.
func (theRouter *Router) GetCountries(response http.ResponseWriter, request *http.Request) {
	body, statusCode, err := theRouter.airports.Countries(request.Context())
	if err != nil {
		logger.Log.Debugln("Error calling the `theRouter.airports.Countries()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	_, _ = response.Write(body)
}

// GetPing reports storage health.
func (theRouter *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := theRouter.service.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `theRouter.service.Ping()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

func (theRouter *Router) respondWithComparisonList(
	response http.ResponseWriter,
	request *http.Request,
	operation func(ctx context.Context, userID string) ([]string, error),
) {
	userID, ok := userIDFromContext(request)
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	items, err := operation(request.Context(), userID)
	if err != nil {
		writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, items)
}

func (theRouter *Router) respondWithHistory(
	response http.ResponseWriter,
	request *http.Request,
	operation func(ctx context.Context, userID string) ([]user.HistoryEntry, error),
) {
	userID, ok := userIDFromContext(request)
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	entries, err := operation(request.Context(), userID)
	if err != nil {
		writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, entries)
}

func profileResponseFromUser(usr *user.User) models.ProfileResponse {
	return models.ProfileResponse{
		UserName:           usr.UserName,
		Email:              usr.Email,
		Nationality:        usr.Nationality,
		MainAirport:        usr.MainAirport,
		PreferredCarriers:  usr.PreferredCarriers,
		PreferredAlliances: usr.PreferredAlliances,
	}
}

func userIDFromContext(request *http.Request) (string, bool) {
	userID, ok := request.Context().Value(auth.UserIDKey).(string)
	return userID, ok && userID != ""
}

func writeServiceError(response http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrPasswordsDoNotMatch),
		errors.Is(err, models.ErrValidation):
		writeError(response, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, models.ErrUserNameTaken),
		errors.Is(err, models.ErrComparisonListFull),
		errors.Is(err, models.ErrHistoryListFull):
		writeError(response, http.StatusConflict, err.Error())

	case errors.Is(err, models.ErrUserNotFound):
		writeError(response, http.StatusNotFound, err.Error())

	case errors.Is(err, models.ErrIncorrectPassword),
		errors.Is(err, models.ErrIncorrectOldPassword),
		errors.Is(err, models.ErrUnauthenticated):
		writeError(response, http.StatusUnauthorized, err.Error())

	default:
		logger.Log.Debugln("storage error: ", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "internal error")
	}
}

func writeError(response http.ResponseWriter, statusCode int, message string) {
	writeJSON(response, statusCode, models.MessageResponse{Message: message})
}

func writeJSON(response http.ResponseWriter, statusCode int, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error calling the `json.NewEncoder().Encode()`: ", zap.Error(err))
	}
}
