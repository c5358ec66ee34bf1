package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type StatsResponse struct {
	TotalUsers   int64 `json:"totalUsers"`
	TotalDesigns int64 `json:"totalDesigns"`
}

// StatsController serves dashboard counters.
type StatsController struct {
	accounts Counter
	designs  Counter
	log      logrus.FieldLogger
}

func NewStatsController(accounts, designs Counter, log logrus.FieldLogger) *StatsController {
	return &StatsController{accounts: accounts, designs: designs, log: log}
}

// Get handles GET /api/stats.
func (sc *StatsController) Get(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := sc.accounts.Count(ctx)
	if err != nil {
		respondInternalError(c, sc.log, err, "count users", "Failed to fetch stats")
		return
	}
	designs, err := sc.designs.Count(ctx)
	if err != nil {
		respondInternalError(c, sc.log, err, "count designs", "Failed to fetch stats")
		return
	}

	c.JSON(http.StatusOK, StatsResponse{TotalUsers: users, TotalDesigns: designs})
}
