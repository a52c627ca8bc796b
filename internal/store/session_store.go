package store

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meetingmind/service/internal/models"
)

// ErrSessionNotFound 会话不存在
var ErrSessionNotFound = errors.New("会话不存在")

// SessionStore 会话存储管理
// 仅内存存储：会话状态不跨进程持久化（分析历史是单次会议的现场状态）
// 过期会话由清理循环按最近活跃时间回收
type SessionStore struct {
	sessions       map[string]*models.Session
	mu             sync.RWMutex
	sessionTimeout time.Duration
}

// NewSessionStore 创建会话存储
func NewSessionStore(sessionTimeout time.Duration) *SessionStore {
	log.Printf("[会话存储] 初始化内存会话存储, 会话超时: %v", sessionTimeout)
	return &SessionStore{
		sessions:       make(map[string]*models.Session),
		sessionTimeout: sessionTimeout,
	}
}

// CreateSession 创建新会话，ID为uuid
func (s *SessionStore) CreateSession() *models.Session {
	session := models.NewSession(uuid.NewString())

	s.mu.Lock()
	s.sessions[session.ID] = session
	count := len(s.sessions)
	s.mu.Unlock()

	log.Printf("[会话存储] 创建会话: %s, 当前会话数: %d", session.ID, count)
	return session
}

// Get 获取会话，不存在时返回ErrSessionNotFound
func (s *SessionStore) Get(sessionID string) (*models.Session, error) {
	s.mu.RLock()
	session, exists := s.sessions[sessionID]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// GetOrCreate 获取会话，不存在则以指定ID创建（MCP工具路径使用调用方提供的会话ID）
func (s *SessionStore) GetOrCreate(sessionID string) *models.Session {
	s.mu.RLock()
	session, exists := s.sessions[sessionID]
	s.mu.RUnlock()
	if exists {
		return session
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 双重检查
	if session, exists = s.sessions[sessionID]; exists {
		return session
	}
	session = models.NewSession(sessionID)
	s.sessions[sessionID] = session
	log.Printf("[会话存储] 按指定ID创建会话: %s, 当前会话数: %d", sessionID, len(s.sessions))
	return session
}

// Count 当前会话数
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Cleanup 回收超过sessionTimeout未活跃的会话，返回回收数量
func (s *SessionStore) Cleanup() int {
	deadline := time.Now().Add(-s.sessionTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.LastActive().Before(deadline) {
			delete(s.sessions, id)
			removed++
			log.Printf("[会话存储] 回收过期会话: %s, 最近活跃: %v", id, session.LastActive().Format(time.RFC3339))
		}
	}
	return removed
}

// StartCleanupLoop 启动后台清理循环，ctx取消时退出
func (s *SessionStore) StartCleanupLoop(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Printf("[会话存储] 清理循环已启动, 间隔: %v", interval)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[会话存储] 清理循环退出")
				return
			case <-ticker.C:
				if removed := s.Cleanup(); removed > 0 {
					log.Printf("[会话存储] 本轮清理回收 %d 个会话, 剩余: %d", removed, s.Count())
				}
			}
		}
	}()
}
