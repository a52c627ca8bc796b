package services

import (
	"context"
	"log"

	"github.com/meetingmind/service/internal/models"
)

// GapEvaluationThreshold 触发覆盖度分析所需的最小历史长度
const GapEvaluationThreshold = 2

// GapEvaluator 议论覆盖度分析
// 每次对全量历史整体重算，相同输入产生相同请求；尽力而为：
// 失败只记录日志并清空结果，不影响本次提交
type GapEvaluator struct {
	client AnalysisService
}

// NewGapEvaluator 创建覆盖度分析器
func NewGapEvaluator(client AnalysisService) *GapEvaluator {
	return &GapEvaluator{client: client}
}

// Evaluate 对全量历史做覆盖度分析
// 历史不足2条时返回nil（清空而非报错）；服务判定无缺口或调用失败同样返回nil
func (g *GapEvaluator) Evaluate(ctx context.Context, transcripts []string, themeID string) *models.GapAnalysis {
	if len(transcripts) < GapEvaluationThreshold {
		log.Printf("📊 [覆盖度分析] 发言数 %d 不足 %d，跳过", len(transcripts), GapEvaluationThreshold)
		return nil
	}

	log.Printf("📊 [覆盖度分析] 开始分析，主题: %s, 发言数: %d", themeID, len(transcripts))

	gaps, err := g.client.AnalyzeGaps(ctx, transcripts, themeID)
	if err != nil {
		log.Printf("⚠️ [覆盖度分析] 分析失败，清空覆盖度状态: %v", err)
		return nil
	}
	if gaps == nil {
		log.Printf("📊 [覆盖度分析] 服务判定当前无不足视点")
		return nil
	}

	log.Printf("✅ [覆盖度分析] 完成，不足视点: %d, 总体平衡度: %.0f",
		len(gaps.MissingPerspectives), gaps.OverallBalance)
	return gaps
}
