package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/meetingmind/service/internal/models"
)

// UtteranceAnalyzer 单条发言的立场/话题/多维度分析
// 调用外部分析服务后经清洗器得到结构化记录；任何失败都不落历史
type UtteranceAnalyzer struct {
	client AnalysisService
}

// NewUtteranceAnalyzer 创建发言分析器
func NewUtteranceAnalyzer(client AnalysisService) *UtteranceAnalyzer {
	return &UtteranceAnalyzer{client: client}
}

// Analyze 分析一条发言
// 文本去空白后为空返回ErrEmptyInput；传输失败或清洗失败返回ErrAnalysisFailed
func (a *UtteranceAnalyzer) Analyze(ctx context.Context, transcript, themeID string) (*models.AnalysisRecord, error) {
	text := strings.TrimSpace(transcript)
	if text == "" {
		return nil, ErrEmptyInput
	}

	log.Printf("🔍 [发言分析] 开始分析，主题: %s, 文本长度: %d", themeID, len(text))

	raw, err := a.client.AnalyzeUtterance(ctx, text, themeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	var record models.AnalysisRecord
	if err := SanitizeInto(raw, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	if err := validateRecord(&record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	log.Printf("✅ [发言分析] 分析完成，话题: %s, 立场: %s, 置信度: %.0f",
		record.Topic, record.Stance, record.Confidence)
	return &record, nil
}

// validateRecord 校验分析记录满足提示词约定：立场为五枚举之一，要点至少一条
func validateRecord(record *models.AnalysisRecord) error {
	if !record.Stance.Valid() {
		return fmt.Errorf("非法立场值: %q", record.Stance)
	}
	if len(record.KeyPoints) == 0 {
		return fmt.Errorf("要点列表为空")
	}
	return nil
}
