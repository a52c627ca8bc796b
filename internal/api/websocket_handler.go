package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/meetingmind/service/internal/utils"
)

// WebSocket升级器
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 允许所有来源的连接（可视化前端跨域访问）
		return true
	},
}

// HandleWebSocket 可视化端观察者连接
// GET /ws?sessionId=xxx — 连接建立后先收到一次当前快照，
// 之后每次编排步骤提交都会收到session_update推送
func (h *Handler) HandleWebSocket(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "sessionId不能为空",
		})
		return
	}

	session, err := h.sessionStore.Get(sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "会话不存在: " + sessionID,
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ [可视化连接] WebSocket升级失败: %v", err)
		return
	}

	connectionID := fmt.Sprintf("%s_viewer_%s", sessionID, utils.GenerateRandomString(8))
	h.wsManager.RegisterViewer(connectionID, sessionID, conn)

	// 初始状态同步：连接建立后立即推送当前快照
	h.wsManager.SendSnapshot(connectionID, session.Snapshot())
}
