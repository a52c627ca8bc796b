package models

import "time"

// WebSocket消息类型常量
const (
	WSTypeSessionUpdate = "session_update" // 会话快照推送
	WSTypeHeartbeat     = "heartbeat"      // 心跳
	WSTypeError         = "error"          // 错误通知
)

// WebSocketMessage WebSocket消息信封
type WebSocketMessage struct {
	Type      string      `json:"type"`                // 消息类型：session_update, heartbeat, error
	SessionID string      `json:"sessionId,omitempty"` // 会话ID
	Data      interface{} `json:"data,omitempty"`      // 消息数据
	Timestamp time.Time   `json:"timestamp"`           // 时间戳
}
