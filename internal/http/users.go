package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UsersController serves the admin account listing.
type UsersController struct {
	accounts AccountLister
	log      logrus.FieldLogger
}

func NewUsersController(accounts AccountLister, log logrus.FieldLogger) *UsersController {
	return &UsersController{accounts: accounts, log: log}
}

// List handles GET /api/users. Password hashes never leave the entity's JSON.
func (uc *UsersController) List(c *gin.Context) {
	users, err := uc.accounts.List(c.Request.Context())
	if err != nil {
		respondInternalError(c, uc.log, err, "list users", "An unexpected error occurred.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   users,
	})
}
