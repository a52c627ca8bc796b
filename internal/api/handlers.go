package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meetingmind/service/internal/config"
	"github.com/meetingmind/service/internal/llm"
	"github.com/meetingmind/service/internal/models"
	"github.com/meetingmind/service/internal/services"
	"github.com/meetingmind/service/internal/store"
)

// Handler API处理器
type Handler struct {
	orchestrator *services.Orchestrator
	sessionStore *store.SessionStore
	wsManager    *services.WebSocketManager
	client       *llm.Client
	config       *config.Config
	startTime    time.Time
}

// NewHandler 创建API处理器
func NewHandler(orchestrator *services.Orchestrator, sessionStore *store.SessionStore,
	wsManager *services.WebSocketManager, client *llm.Client, cfg *config.Config) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		sessionStore: sessionStore,
		wsManager:    wsManager,
		client:       client,
		config:       cfg,
		startTime:    time.Now(),
	}
}

// RegisterRoutes 注册全部路由
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.HandleHome)
	router.GET("/health", h.HandleHealth)

	sessions := router.Group("/api/sessions")
	{
		sessions.POST("", h.HandleCreateSession)
		sessions.GET("/:sessionId", h.HandleGetSession)
		sessions.POST("/:sessionId/speeches", h.HandleSubmitSpeech)
		sessions.GET("/:sessionId/history", h.HandleGetHistory)
		sessions.GET("/:sessionId/theme", h.HandleGetTheme)
		sessions.GET("/:sessionId/gaps", h.HandleGetGaps)
		sessions.GET("/:sessionId/topics", h.HandleGetTopics)
	}

	router.GET("/ws", h.HandleWebSocket)
}

// HandleHome 服务信息
func (h *Handler) HandleHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Meeting Mind Service",
		"status":  "running",
		"service": h.config.ServiceName,
	})
}

// HandleHealth 健康检查：自身状态 + 分析服务可达性
func (h *Handler) HandleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	analysisAPIStatus := "healthy"
	if err := h.client.Health(ctx); err != nil {
		log.Printf("⚠️ [健康检查] 分析服务不可达: %v", err)
		analysisAPIStatus = "unreachable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"uptime":      time.Since(h.startTime).String(),
		"sessions":    h.sessionStore.Count(),
		"viewers":     h.wsManager.ConnectionCount(),
		"analysisApi": analysisAPIStatus,
	})
}

// HandleCreateSession 创建会话
func (h *Handler) HandleCreateSession(c *gin.Context) {
	session := h.sessionStore.CreateSession()
	c.JSON(http.StatusOK, models.CreateSessionResponse{
		Success:   true,
		SessionID: session.ID,
		CreatedAt: session.CreatedAt.Format(time.RFC3339),
	})
}

// HandleGetSession 获取会话完整快照
func (h *Handler) HandleGetSession(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"snapshot": session.Snapshot(),
	})
}

// HandleSubmitSpeech 提交一条发言并执行完整编排步骤
// 语音采集端必须在文本定稿后调用本接口，不允许依赖延时读取状态
func (h *Handler) HandleSubmitSpeech(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req models.SubmitSpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.SubmitSpeechResponse{
			Success: false,
			Error:   "请求格式错误: " + err.Error(),
		})
		return
	}

	entry, err := h.orchestrator.Submit(c.Request.Context(), session, req.Transcript)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, services.ErrEmptyInput):
			status = http.StatusBadRequest
		case errors.Is(err, services.ErrBusy):
			status = http.StatusConflict
		}
		c.JSON(status, models.SubmitSpeechResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SubmitSpeechResponse{
		Success: true,
		Entry:   entry,
		Theme:   session.Theme(),
		Gaps:    session.Gaps(),
		Topics:  session.Topics(),
	})
}

// HandleGetHistory 获取发言历史
func (h *Handler) HandleGetHistory(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": session.History(),
	})
}

// HandleGetTheme 获取已检测主题（未检测时theme为null）
func (h *Handler) HandleGetTheme(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"theme":   session.Theme(),
	})
}

// HandleGetGaps 获取最新覆盖度分析结果
func (h *Handler) HandleGetGaps(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"gaps":    session.Gaps(),
	})
}

// HandleGetTopics 获取最新话题聚类结果
func (h *Handler) HandleGetTopics(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"topics":  session.Topics(),
	})
}

// lookupSession 从路径参数解析会话，不存在时直接写404响应
func (h *Handler) lookupSession(c *gin.Context) (*models.Session, bool) {
	sessionID := c.Param("sessionId")
	session, err := h.sessionStore.Get(sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "会话不存在: " + sessionID,
		})
		return nil, false
	}
	return session, true
}
