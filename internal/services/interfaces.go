package services

import (
	"context"

	"github.com/meetingmind/service/internal/models"
)

// AnalysisService 外部分析服务的四项能力
// 生产实现为 internal/llm 的HTTP客户端，测试中用假实现替换
type AnalysisService interface {
	// AnalyzeUtterance 分析单条发言，返回服务端的原始文本输出（待清洗）
	AnalyzeUtterance(ctx context.Context, transcript, themeID string) (string, error)

	// DetectTheme 基于累计发言文本检测会议主题
	DetectTheme(ctx context.Context, transcripts []string) (*models.Theme, error)

	// AnalyzeGaps 基于全量历史分析议论覆盖度；服务端判定无缺口时返回(nil, nil)
	AnalyzeGaps(ctx context.Context, transcripts []string, themeID string) (*models.GapAnalysis, error)

	// ClassifyTopics 基于全量历史做话题聚类
	ClassifyTopics(ctx context.Context, transcripts []string) (*models.TopicClassification, error)
}
