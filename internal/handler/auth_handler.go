package handler

import (
	"errors"
	"net/http"
	"time"

	"lifeline/internal/config"
	"lifeline/internal/middleware"
	"lifeline/internal/repository"
	auth "lifeline/internal/usecase/auth_usecase"
	"lifeline/internal/validator"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AuthHandler struct {
	loginUC      *auth.LoginUsecase  // ログインusecase
	logoutUC     *auth.LogoutUsecase // ログアウトusecase
	cookieSecure bool
	logger       *zap.Logger
}

// DIコンストラクタ
func NewAuthHandler(
	loginUC *auth.LoginUsecase,
	logoutUC *auth.LogoutUsecase,
	cookieSecure bool,
	logger *zap.Logger,
) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		loginUC:      loginUC,
		logoutUC:     logoutUC,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// /admin/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	e.POST("/admin/login", h.Login)
	e.POST("/admin/logout", h.Logout,
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
	)
}

// Login は POST /admin/login のハンドラ。
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})
	}
	if err := validator.ValidateLogin(req.Email, req.Password); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED"})
		case errors.Is(err, auth.ErrUserInactive):
			return c.JSON(http.StatusForbidden, ErrorResponse{Error: "FORBIDDEN"})
		default:
			h.logger.Error("admin login failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL"})
		}
	}

	h.setTokenCookie(c, out.Token.AccessToken, out.Token.ExpiresAt)

	//JSONレスポンス（user + token）
	return c.JSON(http.StatusOK, out)
}

// Logout は POST /admin/logout。token_version を進めてCookieを消す
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED"})
	}

	if err := h.logoutUC.Execute(c.Request().Context(), userID); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED"})
		}
		h.logger.Error("admin logout failed", zap.Int64("user_id", userID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL"})
	}

	h.setTokenCookie(c, "", time.Unix(0, 0))
	return c.JSON(http.StatusOK, SuccessResponse{Message: "logged out"})
}

// アクセストークンをCookieにセット。空文字なら削除
func (h *AuthHandler) setTokenCookie(c echo.Context, token string, exp time.Time) {
	cookie := &http.Cookie{
		Name:     middleware.AdminTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
		Expires:  exp,
	}
	if token == "" {
		cookie.MaxAge = -1
	}
	c.SetCookie(cookie)
}
