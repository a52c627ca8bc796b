package models

// SubmitSpeechRequest 提交发言请求
type SubmitSpeechRequest struct {
	Transcript string `json:"transcript" binding:"required"`
}

// SubmitSpeechResponse 提交发言响应：本次提交的条目 + 最新派生状态
type SubmitSpeechResponse struct {
	Success bool                 `json:"success"`
	Entry   *HistoryEntry        `json:"entry,omitempty"`
	Theme   *Theme               `json:"theme,omitempty"`
	Gaps    *GapAnalysis         `json:"gaps,omitempty"`
	Topics  *TopicClassification `json:"topics,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// CreateSessionResponse 创建会话响应
type CreateSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	CreatedAt string `json:"createdAt"`
}
