package contexthelpers

import (
	"context"

	"github.com/myrjola/coach21k/internal/i18n"
)

func IsAuthenticated(ctx context.Context) bool {
	isAuthenticated, ok := ctx.Value(IsAuthenticatedContextKey).(bool)
	if !ok {
		return false
	}
	return isAuthenticated
}

// AuthenticatedUserID is the planning API's id for the signed-in user or an empty string.
func AuthenticatedUserID(ctx context.Context) string {
	userID, _ := ctx.Value(AuthenticatedUserIDContextKey).(string)
	return userID
}

func Username(ctx context.Context) string {
	username, _ := ctx.Value(UsernameContextKey).(string)
	return username
}

func CurrentPath(ctx context.Context) string {
	currentPath, _ := ctx.Value(CurrentPathContextKey).(string)
	return currentPath
}

func CSPNonce(ctx context.Context) string {
	cspNonce, _ := ctx.Value(CspNonceContextKey).(string)
	return cspNonce
}

// Language returns the request language or [i18n.DefaultLanguage].
func Language(ctx context.Context) i18n.Language {
	language, ok := ctx.Value(LanguageContextKey).(i18n.Language)
	if !ok {
		return i18n.DefaultLanguage
	}
	return language
}
