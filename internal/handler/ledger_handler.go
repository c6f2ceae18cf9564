package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/zeroup-initiative/partner-backend/internal/service"
)

// LedgerHandler serves the caller's coins, achievements, risk tier and the
// public leaderboard.
type LedgerHandler struct {
	ledger          service.LedgerService
	achievements    service.AchievementService
	risk            service.RiskService
	board           service.LeaderboardService
	leaderboardSize int
}

func NewLedgerHandler(ledger service.LedgerService, achievements service.AchievementService, risk service.RiskService, board service.LeaderboardService, leaderboardSize int) *LedgerHandler {
	if leaderboardSize <= 0 {
		leaderboardSize = 100
	}
	return &LedgerHandler{
		ledger:          ledger,
		achievements:    achievements,
		risk:            risk,
		board:           board,
		leaderboardSize: leaderboardSize,
	}
}

func (h *LedgerHandler) Get(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	snap, err := h.ledger.Snapshot(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "failed to load ledger")
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *LedgerHandler) Stream(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	ch := make(latestOnly, 1)
	stop := h.ledger.Subscribe(c.Request().Context(), uid, func(snap *service.LedgerSnapshot, err error) {
		if err != nil {
			ch.Push(sseEvent{name: "error", data: NewErrorResponse("internal_error", "failed to load ledger")})
			return
		}
		ch.Push(sseEvent{name: "ledger", data: snap})
	})
	return serveSSE(c, ch, stop)
}

func (h *LedgerHandler) Achievements(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	list, err := h.achievements.ListWithProgress(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "failed to load achievements")
	}
	unlocked := 0
	for _, a := range list {
		if a.Unlocked {
			unlocked++
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"achievements": list,
		"unlocked":     unlocked,
		"total":        len(list),
	})
}

func (h *LedgerHandler) Risk(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	tier, err := h.risk.Get(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "failed to load risk")
	}
	return c.JSON(http.StatusOK, tier)
}

func (h *LedgerHandler) Leaderboard(c echo.Context) error {
	limit := h.leaderboardSize
	if lStr := c.QueryParam("limit"); lStr != "" {
		if lParsed, err := strconv.Atoi(lStr); err == nil && lParsed > 0 && lParsed < limit {
			limit = lParsed
		}
	}
	entries, err := h.board.Top(c.Request().Context(), limit)
	if err != nil {
		return serviceError(c, err, "failed to load leaderboard")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"entries": entries})
}
