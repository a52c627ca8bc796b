package models

import (
	"time"
)

// Stance 发言立场
// 字面值与分析服务（Gemini后端）提示词约定保持一致，是日文线上格式，不做翻译
type Stance string

const (
	StanceAgree             Stance = "賛成"
	StanceDisagree          Stance = "反対"
	StanceNeutral           Stance = "中立"
	StanceConditionalAgree  Stance = "条件付き賛成"
	StanceConditionalOppose Stance = "条件付き反対"
)

// Valid 判断立场是否为约定的五个枚举值之一
func (s Stance) Valid() bool {
	switch s {
	case StanceAgree, StanceDisagree, StanceNeutral, StanceConditionalAgree, StanceConditionalOppose:
		return true
	}
	return false
}

// Utterance 一条会议发言
// 吸纳进历史后不可变，Index为到达顺序（从0开始）
type Utterance struct {
	Index      int    `json:"index"`
	Transcript string `json:"transcript"`
}

// AnalysisRecord 单条发言的分析结果
// Dimensions的值为0-10数值（json解码后是float64）或分类标签（如"短期/中期/長期"）
type AnalysisRecord struct {
	Topic      string                 `json:"topic"`
	Stance     Stance                 `json:"stance"`
	Dimensions map[string]interface{} `json:"dimensions"`
	KeyPoints  []string               `json:"key_points"`
	Confidence float64                `json:"confidence"`
}

// HistoryEntry 发言历史条目：发言 + 分析结果 + 提交时间
// 历史为追加写入，已提交条目不再修改、不重排、不删除
type HistoryEntry struct {
	Utterance Utterance       `json:"utterance"`
	Analysis  *AnalysisRecord `json:"analysis"`
	Timestamp time.Time       `json:"timestamp"`
}

// Theme 检测到的会议主题
// 每个会话最多检测一次，检测成功后在会话生命周期内不可变
type Theme struct {
	Theme       string            `json:"theme"`
	ThemeName   string            `json:"theme_name"`
	Description string            `json:"description"`
	Dimensions  map[string]string `json:"dimensions"`
	Confidence  float64           `json:"confidence"`
	Reason      string            `json:"reason,omitempty"`
}

// GapAnalysis 议论覆盖度分析结果
// 每次运行对全量历史整体重算，新结果整体覆盖旧结果
type GapAnalysis struct {
	Coverage            map[string]float64 `json:"coverage"`
	MissingPerspectives []string           `json:"missing_perspectives"`
	Suggestions         []string           `json:"suggestions"`
	OverallBalance      float64            `json:"overall_balance"`
}

// TopicGroup 一个话题分组
// SpeechIndices为发言在历史中的下标（从0开始）；消费方需容忍
// 分类结果基于较旧历史长度计算（下标只会引用当前历史的某个前缀）
type TopicGroup struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	SpeechIndices []int  `json:"speech_indices"`
}

// TopicClassification 全量历史的话题聚类结果
type TopicClassification struct {
	Topics []TopicGroup `json:"topics"`
}

// SessionSnapshot 会话状态的只读快照，供可视化端消费
type SessionSnapshot struct {
	SessionID string               `json:"sessionId"`
	History   []HistoryEntry       `json:"history"`
	Theme     *Theme               `json:"theme,omitempty"`
	Gaps      *GapAnalysis         `json:"gaps,omitempty"`
	Topics    *TopicClassification `json:"topics,omitempty"`
	UpdatedAt time.Time            `json:"updatedAt"`
}
