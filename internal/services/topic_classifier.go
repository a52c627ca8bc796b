package services

import (
	"context"
	"log"

	"github.com/meetingmind/service/internal/models"
)

// TopicClassificationThreshold 触发话题聚类所需的最小历史长度
const TopicClassificationThreshold = 3

// TopicClassifier 全量历史的话题聚类
// 与覆盖度分析同为尽力而为路径：失败清空结果，不影响本次提交
type TopicClassifier struct {
	client AnalysisService
}

// NewTopicClassifier 创建话题聚类器
func NewTopicClassifier(client AnalysisService) *TopicClassifier {
	return &TopicClassifier{client: client}
}

// Classify 对全量历史做话题聚类
// 历史不足3条时返回nil（清空而非报错）；调用失败同样返回nil
func (t *TopicClassifier) Classify(ctx context.Context, transcripts []string) *models.TopicClassification {
	if len(transcripts) < TopicClassificationThreshold {
		log.Printf("🗂 [话题聚类] 发言数 %d 不足 %d，跳过", len(transcripts), TopicClassificationThreshold)
		return nil
	}

	log.Printf("🗂 [话题聚类] 开始聚类，发言数: %d", len(transcripts))

	classification, err := t.client.ClassifyTopics(ctx, transcripts)
	if err != nil {
		log.Printf("⚠️ [话题聚类] 聚类失败，清空话题状态: %v", err)
		return nil
	}
	if classification == nil {
		return nil
	}

	log.Printf("✅ [话题聚类] 完成，话题数: %d", len(classification.Topics))
	return classification
}
