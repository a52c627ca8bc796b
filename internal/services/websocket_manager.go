package services

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/meetingmind/service/internal/models"
)

// 心跳与写超时配置
const (
	wsWriteTimeout  = 5 * time.Second
	wsPingInterval  = 30 * time.Second
	wsPongWait      = 60 * time.Second
	wsMaxMessageLen = 4096
)

// WebSocketManager 可视化端连接管理器
// 按会话维度维护观察者连接，每次编排步骤提交后向该会话的所有连接推送最新快照
// 连接是只读消费端：服务端不接受业务消息，只处理心跳
type WebSocketManager struct {
	connections          map[string]*wsConnection // connectionID -> 连接
	sessionToConnections map[string][]string      // sessionID -> []connectionID
	mutex                sync.RWMutex
}

// wsConnection 单个观察者连接；send串行化写操作，避免gorilla并发写限制
type wsConnection struct {
	id        string
	sessionID string
	conn      *websocket.Conn
	send      chan models.WebSocketMessage
	done      chan struct{}
}

// NewWebSocketManager 创建连接管理器
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		connections:          make(map[string]*wsConnection),
		sessionToConnections: make(map[string][]string),
	}
}

// RegisterViewer 注册一个会话观察者连接，返回连接ID
// 同一会话允许多个观察者；注册后由管理器接管连接的读写与心跳
func (wsm *WebSocketManager) RegisterViewer(connectionID, sessionID string, conn *websocket.Conn) {
	c := &wsConnection{
		id:        connectionID,
		sessionID: sessionID,
		conn:      conn,
		send:      make(chan models.WebSocketMessage, 16),
		done:      make(chan struct{}),
	}

	wsm.mutex.Lock()
	wsm.connections[connectionID] = c
	wsm.sessionToConnections[sessionID] = append(wsm.sessionToConnections[sessionID], connectionID)
	total := len(wsm.connections)
	wsm.mutex.Unlock()

	log.Printf("🔗 [可视化连接] 注册观察者: %s, 会话: %s, 当前连接总数: %d", connectionID, sessionID, total)

	go c.writeLoop(wsm)
	go c.readLoop(wsm)
}

// Unregister 注销连接并关闭底层socket
func (wsm *WebSocketManager) Unregister(connectionID string) {
	wsm.mutex.Lock()
	c, exists := wsm.connections[connectionID]
	if exists {
		delete(wsm.connections, connectionID)
		ids := wsm.sessionToConnections[c.sessionID]
		for i, id := range ids {
			if id == connectionID {
				wsm.sessionToConnections[c.sessionID] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(wsm.sessionToConnections[c.sessionID]) == 0 {
			delete(wsm.sessionToConnections, c.sessionID)
		}
	}
	wsm.mutex.Unlock()

	if exists {
		close(c.done)
		c.conn.Close()
		log.Printf("🔌 [可视化连接] 注销观察者: %s, 会话: %s", connectionID, c.sessionID)
	}
}

// BroadcastSessionUpdate 向某会话的全部观察者推送最新快照
// 推送为尽力而为：发送缓冲已满的慢连接丢弃本次快照（下次推送会带上全量状态）
func (wsm *WebSocketManager) BroadcastSessionUpdate(sessionID string, snapshot models.SessionSnapshot) {
	message := models.WebSocketMessage{
		Type:      models.WSTypeSessionUpdate,
		SessionID: sessionID,
		Data:      snapshot,
		Timestamp: time.Now(),
	}

	wsm.mutex.RLock()
	targets := make([]*wsConnection, 0, len(wsm.sessionToConnections[sessionID]))
	for _, id := range wsm.sessionToConnections[sessionID] {
		if c, ok := wsm.connections[id]; ok {
			targets = append(targets, c)
		}
	}
	wsm.mutex.RUnlock()

	if len(targets) == 0 {
		return
	}

	for _, c := range targets {
		select {
		case c.send <- message:
		default:
			log.Printf("⚠️ [可视化连接] 连接 %s 发送缓冲已满，丢弃本次快照", c.id)
		}
	}
	log.Printf("📡 [可视化连接] 会话 %s 快照已推送至 %d 个观察者，历史长度: %d",
		sessionID, len(targets), len(snapshot.History))
}

// SendSnapshot 向单个连接推送快照（用于连接建立后的初始状态同步）
func (wsm *WebSocketManager) SendSnapshot(connectionID string, snapshot models.SessionSnapshot) {
	wsm.mutex.RLock()
	c, ok := wsm.connections[connectionID]
	wsm.mutex.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- models.WebSocketMessage{
		Type:      models.WSTypeSessionUpdate,
		SessionID: snapshot.SessionID,
		Data:      snapshot,
		Timestamp: time.Now(),
	}:
	default:
	}
}

// ConnectionCount 当前连接总数
func (wsm *WebSocketManager) ConnectionCount() int {
	wsm.mutex.RLock()
	defer wsm.mutex.RUnlock()
	return len(wsm.connections)
}

// writeLoop 串行化该连接的全部写操作（快照推送 + 心跳ping）
func (c *wsConnection) writeLoop(wsm *WebSocketManager) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteJSON(message); err != nil {
				log.Printf("⚠️ [可视化连接] 连接 %s 推送失败: %v", c.id, err)
				wsm.Unregister(c.id)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				wsm.Unregister(c.id)
				return
			}
		case <-c.done:
			return
		}
	}
}

// readLoop 消费入站消息以处理pong和连接关闭；业务消息一律忽略
func (c *wsConnection) readLoop(wsm *WebSocketManager) {
	c.conn.SetReadLimit(wsMaxMessageLen)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			wsm.Unregister(c.id)
			return
		}
	}
}
