package handler

import (
	"context"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/zeroup-initiative/partner-backend/internal/service"
)

// profileGetter is the part of *auth.Client the public profile needs.
type profileGetter interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
}

type UserHandler struct {
	authClient   profileGetter
	ledger       service.LedgerService
	achievements service.AchievementService
}

func NewUserHandler(client profileGetter, ledger service.LedgerService, achievements service.AchievementService) *UserHandler {
	return &UserHandler{authClient: client, ledger: ledger, achievements: achievements}
}

type PublicBadge struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Icon   string `json:"icon"`
	Rarity string `json:"rarity"`
}

type PublicUserResponse struct {
	UID         string        `json:"uid"`
	DisplayName string        `json:"displayName"`
	PhotoURL    *string       `json:"photoURL"`
	Level       int           `json:"level"`
	TotalEarned int64         `json:"totalEarned"`
	Rank        int64         `json:"rank"`
	Badges      []PublicBadge `json:"badges"`
}

// GetPublic is the leaderboard card for one partner: profile, level, rank
// and unlocked badges newest first.
func (h *UserHandler) GetPublic(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid uid"))
	}
	ctx := c.Request().Context()
	user, err := h.authClient.GetUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "user not found"))
	}
	snap, err := h.ledger.Snapshot(ctx, uid)
	if err != nil {
		return serviceError(c, err, "failed to load ledger")
	}
	unlocked, err := h.achievements.ListUnlocked(ctx, uid)
	if err != nil {
		return serviceError(c, err, "failed to load badges")
	}
	badges := make([]PublicBadge, 0, len(unlocked))
	for _, a := range unlocked {
		badges = append(badges, PublicBadge{ID: a.ID, Title: a.Title, Icon: a.Icon, Rarity: string(a.Rarity)})
	}
	return c.JSON(http.StatusOK, PublicUserResponse{
		UID:         user.UID,
		DisplayName: user.DisplayName,
		PhotoURL:    photoURL(user.PhotoURL),
		Level:       snap.Level,
		TotalEarned: snap.TotalEarned,
		Rank:        snap.Rank,
		Badges:      badges,
	})
}

func photoURL(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
