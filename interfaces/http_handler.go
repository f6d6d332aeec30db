package interfaces

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"intellimatch/domain"
	"intellimatch/service"
)

const (
	sessionCookie = "session_token"

	// Uploads past this size are rejected before buffering.
	maxUploadBytes = 8 << 20
)

// Sessions issues and resolves opaque session tokens. Backed by Redis in
// production; tests substitute an in-memory map.
type Sessions interface {
	Create(ctx context.Context, userID string) (string, error)
	UserID(ctx context.Context, token string) (string, error)
	Destroy(ctx context.Context, token string) error
}

type HTTPHandler struct {
	Matches    *service.MatchService
	History    *service.History
	Users      *service.Users
	Sessions   Sessions
	AdminToken string
	CookieTTL  int
	Logger     *zap.Logger
}

// Register wires all routes onto the router.
func Register(router *gin.Engine, h *HTTPHandler) {
	router.GET("/healthz", h.Healthz)

	api := router.Group("/api")
	api.POST("/user/register", h.RegisterUser)
	api.POST("/user/login", h.Login)
	api.POST("/user/logout", h.Logout)

	authed := api.Group("", h.requireSession)
	authed.GET("/user/get", h.CurrentUser)
	authed.POST("/upload", h.Upload)
	authed.GET("/user/history", h.HistoryList)
	authed.GET("/user/match/:matchId", h.MatchDetail)

	api.POST("/admin/cleanup/:matchId", h.requireAdmin, h.AdminCleanup)
}

func (h *HTTPHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireSession resolves the session cookie into a user id and aborts with
// 401 when no valid session exists.
func (h *HTTPHandler) requireSession(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	userID, err := h.Sessions.UserID(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}
	c.Set("userID", userID)
	c.Next()
}

func (h *HTTPHandler) requireAdmin(c *gin.Context) {
	if h.AdminToken == "" || c.GetHeader("X-Admin-Token") != h.AdminToken {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.Next()
}

func (h *HTTPHandler) RegisterUser(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phoneNumber"`
		Password    string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.Users.Register(c.Request.Context(), req.Name, req.Email, req.PhoneNumber, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.startSession(c, user)
}

func (h *HTTPHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		h.fail(c, err)
		return
	}

	h.startSession(c, user)
}

func (h *HTTPHandler) startSession(c *gin.Context, user *domain.User) {
	token, err := h.Sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, h.CookieTTL, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *HTTPHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
		if err := h.Sessions.Destroy(c.Request.Context(), token); err != nil {
			h.Logger.Warn("destroying session failed", zap.Error(err))
		}
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *HTTPHandler) CurrentUser(c *gin.Context) {
	user, err := h.Users.Get(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Upload accepts the resume and job description as multipart form files,
// submits them for analysis and returns the pending match record. The
// analysis itself runs detached; clients poll the history endpoints.
func (h *HTTPHandler) Upload(c *gin.Context) {
	resume, err := h.formDocument(c, "resume")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	jobDescription, err := h.formDocument(c, "jobDescription")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	match, err := h.Matches.Submit(c.Request.Context(), c.GetString("userID"), resume, jobDescription)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      match.ID,
		"message": "Files uploaded, analysis in progress",
	})
}

func (h *HTTPHandler) formDocument(c *gin.Context, field string) (service.Document, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return service.Document{}, errors.New(field + " file is required")
	}
	if header.Size > maxUploadBytes {
		return service.Document{}, errors.New(field + " file is too large")
	}
	file, err := header.Open()
	if err != nil {
		return service.Document{}, errors.New("failed to open " + field + " file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return service.Document{}, errors.New("failed to read " + field + " file")
	}
	if len(data) > maxUploadBytes {
		return service.Document{}, errors.New(field + " file is too large")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return service.Document{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (h *HTTPHandler) HistoryList(c *gin.Context) {
	items, err := h.History.HistoryFor(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": items})
}

func (h *HTTPHandler) MatchDetail(c *gin.Context) {
	matchID := strings.TrimSpace(c.Param("matchId"))
	item, err := h.History.DetailFor(c.Request.Context(), c.GetString("userID"), matchID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// AdminCleanup removes a match and everything hanging off it. Repeating the
// call for an already removed match succeeds.
func (h *HTTPHandler) AdminCleanup(c *gin.Context) {
	matchID := strings.TrimSpace(c.Param("matchId"))
	if matchID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "matchId is required"})
		return
	}
	if err := h.Matches.Cleanup(c.Request.Context(), matchID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cleanup completed"})
}

// fail maps domain errors onto HTTP status codes.
func (h *HTTPHandler) fail(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Msg})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		h.Logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
