package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"linkcraft/internal/app"
	"linkcraft/internal/transport/http/middleware"
	"linkcraft/internal/transport/http/response"
)

// writeAppError maps the app error taxonomy onto HTTP statuses and
// business codes. Unrecognized errors become opaque 500s so internals
// never leak to the caller.
func writeAppError(c *gin.Context, err error) {
	appErr, ok := app.AsError(err)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "internal error")
		return
	}

	switch appErr.Kind {
	case app.KindValidation:
		response.ErrorWithDetail(c, http.StatusBadRequest, response.CodeValidation, appErr.Message, gin.H{
			"fields": appErr.Fields,
		})
	case app.KindUnauthorized:
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, appErr.Message)
	case app.KindForbidden:
		response.Error(c, http.StatusForbidden, response.CodeForbidden, appErr.Message)
	case app.KindInsufficientCredits:
		response.ErrorWithDetail(c, http.StatusPaymentRequired, response.CodeInsufficientCredits, appErr.Message, gin.H{
			"required":  appErr.Required,
			"available": appErr.Available,
		})
	case app.KindExternalService:
		detail := gin.H{"service": appErr.Service}
		if appErr.RetryAfter > 0 {
			detail["retry_after_seconds"] = int(appErr.RetryAfter.Seconds())
		}
		response.ErrorWithDetail(c, http.StatusServiceUnavailable, response.CodeExternalService, appErr.Message, detail)
	case app.KindMalformedGeneration:
		response.Error(c, http.StatusInternalServerError, response.CodeMalformedGeneration, appErr.Message)
	case app.KindStorage:
		response.Error(c, http.StatusInternalServerError, response.CodeStorage, appErr.Message)
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "internal error")
	}
}

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := raw.(uint)
	if !ok || userID == 0 {
		return 0, false
	}
	return userID, true
}
