package services

import (
	"context"
	"sync"

	"github.com/meetingmind/service/internal/models"
)

// validAnalysisRaw 分析服务典型的文本输出：JSON外面包着围栏和说明文字
const validAnalysisRaw = "以下が分析結果です。\n```json\n" +
	`{"topic":"コスト","stance":"賛成","dimensions":{"cost_concern":8,"time_horizon":"短期"},"key_points":["初期費用が高い"],"confidence":7}` +
	"\n```\nご確認ください。"

type fakeAnalyzeCall struct {
	transcript string
	themeID    string
}

type fakeGapCall struct {
	transcripts []string
	themeID     string
}

// fakeAnalysis 可脚本化的分析服务假实现
// 记录每次调用的请求载荷，便于断言门限和主题解析顺序
type fakeAnalysis struct {
	mu sync.Mutex

	analyzeRaw string
	analyzeErr error
	theme      *models.Theme
	themeErr   error
	gaps       *models.GapAnalysis
	gapsErr    error
	topics     *models.TopicClassification
	topicsErr  error

	// analyzeStarted 每次进入AnalyzeUtterance时收到通知
	analyzeStarted chan struct{}
	// analyzeBlock 非nil时AnalyzeUtterance阻塞直到该channel被关闭
	analyzeBlock chan struct{}

	analyzeCalls []fakeAnalyzeCall
	detectCalls  [][]string
	gapCalls     []fakeGapCall
	topicCalls   [][]string
}

func newFakeAnalysis() *fakeAnalysis {
	theme := models.ResolveTheme("equipment_investment")
	return &fakeAnalysis{
		analyzeRaw: validAnalysisRaw,
		theme:      &theme,
		gaps: &models.GapAnalysis{
			Coverage:            map[string]float64{"cost_concern": 8, "safety_concern": 2},
			MissingPerspectives: []string{"安全性重視度"},
			Suggestions:         []string{"安全面のリスクはどう評価しますか？"},
			OverallBalance:      4,
		},
		topics: &models.TopicClassification{
			Topics: []models.TopicGroup{
				{Name: "コスト", Description: "費用に関する議論", SpeechIndices: []int{0, 2}},
				{Name: "安全性", Description: "安全面の議論", SpeechIndices: []int{1}},
			},
		},
	}
}

func (f *fakeAnalysis) AnalyzeUtterance(ctx context.Context, transcript, themeID string) (string, error) {
	f.mu.Lock()
	f.analyzeCalls = append(f.analyzeCalls, fakeAnalyzeCall{transcript: transcript, themeID: themeID})
	started := f.analyzeStarted
	block := f.analyzeBlock
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}

	if f.analyzeErr != nil {
		return "", f.analyzeErr
	}
	return f.analyzeRaw, nil
}

func (f *fakeAnalysis) DetectTheme(ctx context.Context, transcripts []string) (*models.Theme, error) {
	f.mu.Lock()
	f.detectCalls = append(f.detectCalls, append([]string(nil), transcripts...))
	f.mu.Unlock()

	if f.themeErr != nil {
		return nil, f.themeErr
	}
	return f.theme, nil
}

func (f *fakeAnalysis) AnalyzeGaps(ctx context.Context, transcripts []string, themeID string) (*models.GapAnalysis, error) {
	f.mu.Lock()
	f.gapCalls = append(f.gapCalls, fakeGapCall{
		transcripts: append([]string(nil), transcripts...),
		themeID:     themeID,
	})
	f.mu.Unlock()

	if f.gapsErr != nil {
		return nil, f.gapsErr
	}
	return f.gaps, nil
}

func (f *fakeAnalysis) ClassifyTopics(ctx context.Context, transcripts []string) (*models.TopicClassification, error) {
	f.mu.Lock()
	f.topicCalls = append(f.topicCalls, append([]string(nil), transcripts...))
	f.mu.Unlock()

	if f.topicsErr != nil {
		return nil, f.topicsErr
	}
	return f.topics, nil
}

func (f *fakeAnalysis) analyzeCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.analyzeCalls)
}

func (f *fakeAnalysis) detectCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.detectCalls)
}

func (f *fakeAnalysis) gapCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.gapCalls)
}

func (f *fakeAnalysis) topicCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.topicCalls)
}
