package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nudge-notify/internal/model"
	"nudge-notify/internal/repository"
	"nudge-notify/internal/service"
)

// Server is the HTTP surface: the ping path, the secret-guarded scan trigger,
// and the item/token write paths that feed the status deriver.
type Server struct {
	router     *gin.Engine
	items      *service.ItemService
	ping       *service.PingService
	dispatcher *service.DispatcherService
	users      *repository.UserRepository
	jwtSecret  string
	scanSecret string
	log        *zap.Logger
}

func New(
	items *service.ItemService,
	ping *service.PingService,
	dispatcher *service.DispatcherService,
	users *repository.UserRepository,
	jwtSecret, scanSecret string,
	log *zap.Logger,
) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:     router,
		items:      items,
		ping:       ping,
		dispatcher: dispatcher,
		users:      users,
		jwtSecret:  jwtSecret,
		scanSecret: scanSecret,
		log:        log,
	}
	s.setupRoutes()
	return s
}

// Router exposes the underlying engine, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "nudge-notify"})
	})

	api := s.router.Group("/api/v1")

	// Scan-over-HTTP is guarded by the shared secret, not a user credential.
	api.POST("/send-reminders", s.handleSendReminders())
	api.GET("/send-reminders", s.handleSendReminders())

	authed := api.Group("")
	authed.Use(BearerAuth(s.jwtSecret))
	{
		authed.POST("/ping", s.handlePing())

		authed.PUT("/users/me", s.handleUpsertUser())
		authed.POST("/users/me/tokens", s.handleRegisterToken())
		authed.DELETE("/users/me/tokens/:token", s.handleDeleteToken())

		items := authed.Group("/items")
		{
			items.POST("", s.handleCreateItem())
			items.GET("", s.handleListItems())
			items.PATCH("/:id", s.handleUpdateItem())
			items.PUT("/:id/completion", s.handleSetCompletion())
			items.DELETE("/:id", s.handleDeleteItem())
		}
	}
}

// pingRequest is the body of the nudge endpoint.
type pingRequest struct {
	ToUID     string `json:"toUid" binding:"required"`
	SpaceID   string `json:"spaceId" binding:"required"`
	ItemID    string `json:"itemId" binding:"required"`
	ItemTitle string `json:"itemTitle" binding:"required"`
	SpaceName string `json:"spaceName"`
}

func (s *Server) handlePing() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}

		result, err := s.ping.Send(c.Request.Context(), service.PingInput{
			FromUID:   CallerUID(c),
			ToUID:     req.ToUID,
			SpaceID:   req.SpaceID,
			ItemID:    req.ItemID,
			ItemTitle: req.ItemTitle,
			SpaceName: req.SpaceName,
		})
		if err != nil {
			s.log.Error("ping failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func (s *Server) handleSendReminders() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := c.GetHeader("X-Cron-Secret")
		if secret == "" {
			secret = c.Query("secret")
		}
		if s.scanSecret == "" || secret != s.scanSecret {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		summary, err := s.dispatcher.Run(c.Request.Context())
		if err != nil {
			s.log.Error("scan failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}

// upsertUserRequest bootstraps or refreshes the caller's profile.
type upsertUserRequest struct {
	Handle      string `json:"handle" binding:"required"`
	DisplayName string `json:"displayName" binding:"required"`
}

func (s *Server) handleUpsertUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req upsertUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}

		user, err := s.users.Upsert(c.Request.Context(), CallerUID(c), req.Handle, req.DisplayName)
		if err != nil {
			s.log.Error("upsert user failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"uid":         user.UID,
			"handle":      user.Handle,
			"displayName": user.DisplayName,
		})
	}
}

type registerTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (s *Server) handleRegisterToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}

		if err := s.users.RegisterToken(c.Request.Context(), CallerUID(c), req.Token); err != nil {
			s.log.Error("register token failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"registered": true})
	}
}

func (s *Server) handleDeleteToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}

		if err := s.users.DeleteToken(c.Request.Context(), CallerUID(c), token); err != nil {
			s.log.Error("delete token failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// itemResponse is the JSON rendering of an item.
type itemResponse struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	OwnerUID     string     `json:"ownerUid,omitempty"`
	SpaceID      string     `json:"spaceId,omitempty"`
	Title        string     `json:"title"`
	Details      string     `json:"details,omitempty"`
	IsCompleted  bool       `json:"isCompleted"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	RemindAt     *time.Time `json:"remindAt,omitempty"`
	Timezone     string     `json:"timezone,omitempty"`
	NotifyStatus string     `json:"notifyStatus"`
	CreatedByUID string     `json:"createdByUid"`
	UpdatedByUID string     `json:"updatedByUid"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func toItemResponse(item *model.Item) itemResponse {
	return itemResponse{
		ID:           item.ID,
		Type:         string(item.Type),
		OwnerUID:     item.OwnerUID,
		SpaceID:      item.SpaceID,
		Title:        item.Title,
		Details:      item.Details,
		IsCompleted:  item.IsCompleted,
		CompletedAt:  item.CompletedAt,
		RemindAt:     item.RemindAt,
		Timezone:     item.Timezone,
		NotifyStatus: string(item.NotifyStatus),
		CreatedByUID: item.CreatedByUID,
		UpdatedByUID: item.UpdatedByUID,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

type createItemRequest struct {
	Type     string     `json:"type" binding:"required"`
	SpaceID  string     `json:"spaceId"`
	Title    string     `json:"title" binding:"required"`
	Details  string     `json:"details"`
	RemindAt *time.Time `json:"remindAt"`
	Timezone string     `json:"timezone"`
}

func (s *Server) handleCreateItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}

		item, err := s.items.Create(c.Request.Context(), CallerUID(c), service.ItemInput{
			Type:     model.ItemType(req.Type),
			SpaceID:  req.SpaceID,
			Title:    req.Title,
			Details:  req.Details,
			RemindAt: req.RemindAt,
			Timezone: req.Timezone,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, toItemResponse(item))
	}
}

func (s *Server) handleListItems() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := s.items.List(c.Request.Context(), CallerUID(c))
		if err != nil {
			s.log.Error("list items failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		responses := make([]itemResponse, 0, len(items))
		for i := range items {
			responses = append(responses, toItemResponse(&items[i]))
		}
		c.JSON(http.StatusOK, responses)
	}
}

type updateItemRequest struct {
	Title         *string    `json:"title"`
	Details       *string    `json:"details"`
	RemindAt      *time.Time `json:"remindAt"`
	ClearReminder bool       `json:"clearReminder"`
	Timezone      *string    `json:"timezone"`
}

func (s *Server) handleUpdateItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}

		item, err := s.items.Update(c.Request.Context(), CallerUID(c), c.Param("id"), service.ItemUpdate{
			Title:         req.Title,
			Details:       req.Details,
			RemindAt:      req.RemindAt,
			ClearReminder: req.ClearReminder,
			Timezone:      req.Timezone,
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, toItemResponse(item))
	}
}

type setCompletionRequest struct {
	IsCompleted *bool `json:"isCompleted" binding:"required"`
}

func (s *Server) handleSetCompletion() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setCompletionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}

		item, err := s.items.SetCompleted(c.Request.Context(), CallerUID(c), c.Param("id"), *req.IsCompleted)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
				return
			}
			s.log.Error("set completion failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, toItemResponse(item))
	}
}

func (s *Server) handleDeleteItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.items.Delete(c.Request.Context(), c.Param("id")); err != nil {
			s.log.Error("delete item failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
