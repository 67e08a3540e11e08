package controllers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/npolukhin/shortlink/internal/controllers/middlewares"
	"github.com/npolukhin/shortlink/internal/services"
	"github.com/npolukhin/shortlink/internal/tokens"

	"github.com/gin-gonic/gin"
)

// StatsReader срез агрегатора аналитики, нужный админке.
type StatsReader interface {
	Overview(ctx context.Context) (*services.Overview, error)
	Detail(ctx context.Context, linkID uint) (*services.LinkDetail, error)
	Search(ctx context.Context, query string) ([]services.LinkSummary, error)
}

// AdminController логин/логаут и read-only запросы аналитики.
// Общий секрет одновременно и пароль входа, и ключ подписи сессии.
type AdminController struct {
	stats  StatsReader
	secret []byte
	maxAge time.Duration
}

func NewAdminController(stats StatsReader, secret []byte, maxAge time.Duration) *AdminController {
	if maxAge <= 0 {
		maxAge = tokens.DefaultSessionMaxAge
	}
	return &AdminController{
		stats:  stats,
		secret: secret,
		maxAge: maxAge,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login сверяет пароль с общим секретом и выставляет сессионную куку.
func (a *AdminController) Login(ctx *gin.Context) {
	if len(a.secret) == 0 {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin is not configured"})
		return
	}

	var password string
	if isJSONRequest(ctx) {
		var req loginRequest
		if bindErr := ctx.ShouldBindJSON(&req); bindErr != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
			return
		}
		password = req.Password
	} else {
		password = ctx.PostForm("password")
	}

	if subtle.ConstantTimeCompare([]byte(password), a.secret) != 1 {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	token := tokens.NewSessionToken(a.secret, time.Now())
	ctx.SetCookie(
		middlewares.SessionCookieName,
		token,
		int(a.maxAge.Seconds()),
		"/",
		"",
		false,
		true,
	)
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

// Logout стирает сессионную куку. Сам токен продолжает жить до
// естественного истечения — списка отзыва нет.
func (a *AdminController) Logout(ctx *gin.Context) {
	ctx.SetCookie(middlewares.SessionCookieName, "", -1, "/", "", false, true)
	ctx.Redirect(http.StatusFound, middlewares.LoginPath)
}

// LoginPage заглушка для браузерного редиректа: рендеринг формы — зона
// ответственности внешнего UI.
func (a *AdminController) LoginPage(ctx *gin.Context) {
	ctx.String(http.StatusOK, "login required")
}

func (a *AdminController) Overview(ctx *gin.Context) {
	overview, err := a.stats.Overview(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": ErrInternal.Error()})
		return
	}
	ctx.JSON(http.StatusOK, overview)
}

func (a *AdminController) Detail(ctx *gin.Context) {
	linkID, parseErr := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if parseErr != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": ErrRecordNotFound.Error()})
		return
	}

	detail, err := a.stats.Detail(ctx.Request.Context(), uint(linkID))
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": ErrRecordNotFound.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": ErrInternal.Error()})
		return
	}
	ctx.JSON(http.StatusOK, detail)
}

func (a *AdminController) Search(ctx *gin.Context) {
	results, err := a.stats.Search(ctx.Request.Context(), ctx.Query("q"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": ErrInternal.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": results})
}
