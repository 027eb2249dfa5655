package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

// currentOwner returns the caller's user id, which scopes every school
// resource. It writes a 401 when the request carries no claims.
func currentOwner(c *gin.Context) (int64, bool) {
	claims := middleware.Claims(c)
	if claims == nil || claims.UserID <= 0 {
		response.Error(c, appErrors.ErrUnauthorized)
		return 0, false
	}
	return claims.UserID, true
}

// idParam parses a positive integer path parameter, writing a 400 otherwise.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
