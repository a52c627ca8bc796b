package models

import (
	"sync"
	"time"
)

// ThemeState 主题检测状态机
// Unset → Pending → Detected，Detected为终态；检测失败从Pending退回Unset
type ThemeState int

const (
	ThemeUnset ThemeState = iota
	ThemePending
	ThemeDetected
)

// Session 一次会议会话的全部状态
// 历史追加写入、主题一次写入、覆盖度/话题整体覆盖更新
// 所有变更都必须经过编排器（Orchestrator），其他组件只读
type Session struct {
	ID        string
	CreatedAt time.Time

	// submitMu 提交门：同一会话同一时刻只允许一个编排步骤在执行
	submitMu sync.Mutex

	// mu 保护以下字段
	mu         sync.RWMutex
	lastActive time.Time
	history    []HistoryEntry
	themeState ThemeState
	theme      *Theme
	gaps       *GapAnalysis
	topics     *TopicClassification
}

// NewSession 创建新会话
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		CreatedAt:  now,
		lastActive: now,
	}
}

// TryBegin 尝试进入编排步骤；已有步骤在执行时返回false（Busy策略：拒绝并发提交）
func (s *Session) TryBegin() bool {
	return s.submitMu.TryLock()
}

// End 结束编排步骤，放行下一次提交
func (s *Session) End() {
	s.submitMu.Unlock()
}

// Touch 更新会话活跃时间
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// LastActive 返回最近活跃时间
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Len 历史长度
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// History 返回历史条目的副本
func (s *Session) History() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// Transcripts 返回全部已提交发言的文本，按到达顺序
func (s *Session) Transcripts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.history))
	for i, entry := range s.history {
		out[i] = entry.Utterance.Transcript
	}
	return out
}

// TranscriptsWith 返回"已提交发言 + 待分析发言"的临时历史文本
// 用于主题检测门：新发言尚未提交，但参与长度判定
func (s *Session) TranscriptsWith(pending string) []string {
	transcripts := s.Transcripts()
	return append(transcripts, pending)
}

// Append 提交一条新的历史条目，返回该条目
// 只能在发言分析成功后调用，保证要么追加完整条目要么什么都不变
func (s *Session) Append(transcript string, analysis *AnalysisRecord) HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := HistoryEntry{
		Utterance: Utterance{
			Index:      len(s.history),
			Transcript: transcript,
		},
		Analysis:  analysis,
		Timestamp: time.Now(),
	}
	s.history = append(s.history, entry)
	s.lastActive = entry.Timestamp
	return entry
}

// ThemeState 当前主题检测状态
func (s *Session) ThemeState() ThemeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.themeState
}

// SetThemePending 标记检测进行中；仅允许从Unset进入
func (s *Session) SetThemePending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.themeState != ThemeUnset {
		return false
	}
	s.themeState = ThemePending
	return true
}

// ResetThemeState 检测失败时从Pending退回Unset
func (s *Session) ResetThemeState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.themeState == ThemePending {
		s.themeState = ThemeUnset
	}
}

// SetTheme 写入检测到的主题并进入终态；主题一次写入，重复写入被忽略
func (s *Session) SetTheme(theme *Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.themeState == ThemeDetected {
		return
	}
	s.theme = theme
	s.themeState = ThemeDetected
}

// Theme 返回已检测的主题，未检测时为nil
func (s *Session) Theme() *Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetGaps 整体覆盖更新覆盖度分析结果（nil表示清空）
func (s *Session) SetGaps(gaps *GapAnalysis) {
	s.mu.Lock()
	s.gaps = gaps
	s.mu.Unlock()
}

// Gaps 返回最新的覆盖度分析结果
func (s *Session) Gaps() *GapAnalysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gaps
}

// SetTopics 整体覆盖更新话题聚类结果（nil表示清空）
func (s *Session) SetTopics(topics *TopicClassification) {
	s.mu.Lock()
	s.topics = topics
	s.mu.Unlock()
}

// Topics 返回最新的话题聚类结果
func (s *Session) Topics() *TopicClassification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topics
}

// Snapshot 返回会话状态的只读快照
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := make([]HistoryEntry, len(s.history))
	copy(history, s.history)
	return SessionSnapshot{
		SessionID: s.ID,
		History:   history,
		Theme:     s.theme,
		Gaps:      s.gaps,
		Topics:    s.topics,
		UpdatedAt: s.lastActive,
	}
}
