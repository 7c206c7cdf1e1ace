package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-reservation/internal/config"
	"github.com/iliyamo/parking-reservation/internal/model"
	"github.com/iliyamo/parking-reservation/internal/repository"
	"github.com/iliyamo/parking-reservation/internal/utils"
)

// cardIDAttempts bounds regeneration of an auto-assigned card id.
const cardIDAttempts = 3

// AuthHandler bundles dependencies for account endpoints.  Signing in is
// a card id lookup; there are no passwords.
type AuthHandler struct {
	Cfg      config.Config
	Users    userStore
	Tokens   tokenStore
	Vehicles vehicleStore
	Log      *zap.Logger
}

func NewAuthHandler(cfg config.Config, u userStore, t tokenStore, v vehicleStore, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Vehicles: v, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Name         string   `json:"name"`
	CardID       string   `json:"card_id"`
	UserType     string   `json:"user_type"`
	PlateNumbers []string `json:"plate_numbers"`
}
type loginReq struct {
	CardID string `json:"card_id"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User     model.User      `json:"user"`
	Vehicles []model.Vehicle `json:"vehicles,omitempty"`
	Access   tokenPart       `json:"access"`
	Refresh  tokenPart       `json:"refresh"`
}

// Register creates a user (and, for car owners, their vehicles) and
// returns a session right away.  An empty card id is generated.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.UserType = strings.ToLower(strings.TrimSpace(req.UserType))
	if req.Name == "" {
		return badRequest(c, "name required")
	}
	if !model.ValidUserType(req.UserType) {
		return badRequest(c, "user_type must be car_owner or building_owner")
	}
	var plates []string
	if req.UserType == model.UserTypeCarOwner {
		plates = model.NormalizePlates(req.PlateNumbers)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	cardID := strings.TrimSpace(req.CardID)
	generated := cardID == ""
	var (
		u        *model.User
		vehicles []model.Vehicle
		err      error
	)
	for attempt := 0; attempt < cardIDAttempts; attempt++ {
		if generated {
			if cardID, err = utils.NewCardID(); err != nil {
				return writeError(c, h.Log, "generate card id", err)
			}
		}
		u, vehicles, err = h.Users.Create(ctx, req.Name, cardID, req.UserType, plates)
		if !(generated && errors.Is(err, repository.ErrCardExists)) {
			break
		}
	}
	if err != nil {
		return writeError(c, h.Log, "register", err)
	}

	resp, err := h.issue(c, u)
	if err != nil {
		return writeError(c, h.Log, "issue tokens", err)
	}
	resp.Vehicles = vehicles
	h.Log.Info("user registered", zap.Uint64("user_id", u.ID), zap.String("user_type", u.UserType), zap.Int("vehicles", len(vehicles)))
	return c.JSON(http.StatusCreated, resp)
}

// Login looks the card id up and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.CardID = strings.TrimSpace(req.CardID)
	if req.CardID == "" {
		return badRequest(c, "card_id required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.GetByCardID(ctx, req.CardID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown card id"})
	}
	if err != nil {
		return writeError(c, h.Log, "login", err)
	}
	resp, err := h.issue(c, u)
	if err != nil {
		return writeError(c, h.Log, "issue tokens", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh validates the refresh token by hash, rotates it and issues a
// new access token for the user's current role.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	oldHash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))
	uid, err := h.Tokens.ValidateRefresh(ctx, oldHash)
	if errors.Is(err, repository.ErrTokenInvalid) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err != nil {
		return writeError(c, h.Log, "validate refresh", err)
	}
	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err != nil {
		return writeError(c, h.Log, "refresh", err)
	}

	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTL())
	if err != nil {
		return writeError(c, h.Log, "issue refresh", err)
	}
	err = h.Tokens.Rotate(ctx, uid, oldHash, utils.HashRefreshRaw(refresh.Raw), refresh.Exp)
	if errors.Is(err, repository.ErrTokenInvalid) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err != nil {
		return writeError(c, h.Log, "rotate refresh", err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.UserType, h.Cfg.AccessTTL())
	if err != nil {
		return writeError(c, h.Log, "issue access", err)
	}
	return c.JSON(http.StatusOK, authResp{
		User:    *u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}

// Logout revokes the given refresh token.  Unknown tokens are ignored.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))); err != nil {
		return writeError(c, h.Log, "logout", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me re-reads the signed-in user from the store so that a deleted account
// stops working even while its access token is still valid.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session no longer valid"})
	}
	if err != nil {
		return writeError(c, h.Log, "me", err)
	}
	resp := echo.Map{"user": u}
	if u.UserType == model.UserTypeCarOwner {
		vehicles, err := h.Vehicles.ListByUser(ctx, u.ID)
		if err != nil {
			return writeError(c, h.Log, "list vehicles", err)
		}
		resp["vehicles"] = vehicles
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) issue(c echo.Context, u *model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.UserType, h.Cfg.AccessTTL())
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTL())
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(c.Request().Context(), u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    *u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}
