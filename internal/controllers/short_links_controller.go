package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/npolukhin/shortlink/internal/controllers/middlewares"
	"github.com/npolukhin/shortlink/internal/models"
	"github.com/npolukhin/shortlink/internal/ratelimit"
	"github.com/npolukhin/shortlink/internal/services"

	"github.com/gin-gonic/gin"
)

// LinkAllocator срез сервиса ссылок, нужный контроллеру.
type LinkAllocator interface {
	Allocate(ctx context.Context, rawURL, alias string, expiresAt *time.Time) (*models.ShortLink, bool, error)
	Resolve(ctx context.Context, code string) (*models.ShortLink, error)
}

// codePattern допустимая форма кода в пути редиректа. Все, что не
// подходит, можно отбрасывать без похода в хранилище.
var codePattern = regexp.MustCompile(`^[A-Za-z0-9-]{3,30}$`)

type ShortLinkController struct {
	linkService  LinkAllocator
	aliasLimiter *ratelimit.Limiter
	baseURL      *url.URL
}

func NewShortLinkController(
	linkService LinkAllocator,
	aliasLimiter *ratelimit.Limiter,
	baseURL *url.URL,
) *ShortLinkController {
	return &ShortLinkController{
		linkService:  linkService,
		aliasLimiter: aliasLimiter,
		baseURL:      baseURL,
	}
}

type shortenRequest struct {
	URL       string `json:"url" binding:"required"`
	Alias     string `json:"alias"`
	ExpiresAt string `json:"expiresAt"`
}

// Shorten принимает запрос на создание короткой ссылки.
func (s *ShortLinkController) Shorten(ctx *gin.Context) {
	var req shortenRequest
	if bindErr := ctx.ShouldBindJSON(&req); bindErr != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		parsed, parseErr := time.Parse(time.RFC3339, req.ExpiresAt)
		if parseErr != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid expiry"})
			return
		}
		expiresAt = &parsed
	}

	// отдельная, более жесткая квота на кастомные алиасы
	if req.Alias != "" && s.aliasLimiter != nil && !s.aliasLimiter.Allow(ctx.ClientIP()) {
		middlewares.RecordRateLimitHit()
		ctx.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later"})
		return
	}

	link, reused, allocErr := s.linkService.Allocate(ctx.Request.Context(), req.URL, req.Alias, expiresAt)
	if allocErr != nil {
		status, message := allocStatus(allocErr)
		ctx.JSON(status, gin.H{"error": message})
		return
	}

	if !reused {
		middlewares.RecordLinkCreated()
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"shortUrl": shortURLFor(s.baseURL, ctx.Request, link.Code),
		"code":     link.Code,
		"reused":   reused,
	})
}

// Redirect резолвит код и отвечает временным редиректом. Истекший код
// неотличим от несуществующего — оба дают 404.
func (s *ShortLinkController) Redirect(ctx *gin.Context) {
	code := ctx.Param("code")

	if !codePattern.MatchString(code) {
		ctx.String(http.StatusNotFound, ErrRecordNotFound.Error())
		return
	}

	link, err := s.linkService.Resolve(ctx.Request.Context(), code)
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			ctx.String(http.StatusNotFound, ErrRecordNotFound.Error())
			return
		}
		ctx.String(http.StatusInternalServerError, ErrInternal.Error())
		return
	}

	middlewares.RecordRedirect()
	ctx.Redirect(http.StatusTemporaryRedirect, link.Destination)
}

// allocStatus сопоставляет ошибки аллокатора с HTTP статусом и
// сообщением. Детали нарушенного правила наружу не уходят.
func allocStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidDestination):
		return http.StatusBadRequest, "invalid url"
	case errors.Is(err, services.ErrInvalidExpiry):
		return http.StatusBadRequest, "invalid expiry"
	case errors.Is(err, services.ErrInvalidAlias):
		return http.StatusBadRequest, "invalid alias"
	case errors.Is(err, services.ErrAliasTaken):
		return http.StatusConflict, "alias taken"
	case errors.Is(err, services.ErrAllocationExhausted):
		return http.StatusInternalServerError, "allocation failed, please retry"
	default:
		return http.StatusInternalServerError, ErrInternal.Error()
	}
}
