package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"caro-server/internal/api/response"
	"caro-server/internal/repository"
)

const defaultLeaderboardSize = 10

// LeaderboardController serves aggregate match outcomes.
type LeaderboardController struct {
	stats repository.StatsRepository
}

// NewLeaderboardController creates a new LeaderboardController. stats may be
// nil when outcome recording is disabled.
func NewLeaderboardController(stats repository.StatsRepository) *LeaderboardController {
	return &LeaderboardController{stats: stats}
}

// Top returns the highest win tallies.
func (lc *LeaderboardController) Top(c *gin.Context) {
	if lc.stats == nil {
		response.ErrorResponse(c, http.StatusServiceUnavailable, "leaderboard is disabled")
		return
	}

	n := int64(defaultLeaderboardSize)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			response.ErrorResponse(c, http.StatusBadRequest, "invalid limit")
			return
		}
		n = parsed
	}

	scores, err := lc.stats.TopWinners(c.Request.Context(), n)
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.SuccessResponse(c, gin.H{"leaderboard": scores})
}
