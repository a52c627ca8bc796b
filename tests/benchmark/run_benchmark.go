package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/schollz/progressbar/v3"

	"github.com/meetingmind/service/internal/models"
	"github.com/meetingmind/service/internal/services"
	"github.com/meetingmind/service/internal/store"
)

// Result 存储单项基准测试结果
type Result struct {
	Name        string        `json:"name"`
	Operations  int           `json:"operations"`
	TotalTime   time.Duration `json:"total_time"`
	AverageTime time.Duration `json:"average_time"`
	MinTime     time.Duration `json:"min_time"`
	MaxTime     time.Duration `json:"max_time"`
	SuccessRate float64       `json:"success_rate"`
}

// Suite 存储完整基准测试结果
type Suite struct {
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Environment  string    `json:"environment"`
	Results      []Result  `json:"results"`
	TestDataSize int       `json:"test_data_size"`
}

// MockAnalysis 模拟分析服务：带真实调用延迟，返回格式正确的分析文本
type MockAnalysis struct{}

var stances = []string{"賛成", "反対", "中立", "条件付き賛成", "条件付き反対"}

// AnalyzeUtterance 模拟单条发言分析
func (m *MockAnalysis) AnalyzeUtterance(ctx context.Context, transcript, themeID string) (string, error) {
	// 模拟LLM生成延迟
	time.Sleep(time.Duration(30+rand.Intn(30)) * time.Millisecond)
	record := map[string]interface{}{
		"topic":      gofakeit.BuzzWord(),
		"stance":     stances[rand.Intn(len(stances))],
		"dimensions": map[string]interface{}{"cost_concern": rand.Intn(10) + 1},
		"key_points": []string{gofakeit.Sentence(6)},
		"confidence": rand.Intn(10) + 1,
	}
	data, _ := json.Marshal(record)
	// 真实服务会把JSON包在围栏里，这里保持同样形态以覆盖清洗路径
	return "```json\n" + string(data) + "\n```", nil
}

// DetectTheme 模拟主题检测
func (m *MockAnalysis) DetectTheme(ctx context.Context, transcripts []string) (*models.Theme, error) {
	time.Sleep(time.Duration(40+rand.Intn(40)) * time.Millisecond)
	theme := models.ResolveTheme("equipment_investment")
	theme.Confidence = float64(rand.Intn(4) + 6)
	return &theme, nil
}

// AnalyzeGaps 模拟覆盖度分析
func (m *MockAnalysis) AnalyzeGaps(ctx context.Context, transcripts []string, themeID string) (*models.GapAnalysis, error) {
	time.Sleep(time.Duration(50+rand.Intn(50)) * time.Millisecond)
	return &models.GapAnalysis{
		Coverage:            map[string]float64{"cost_concern": float64(rand.Intn(10) + 1)},
		MissingPerspectives: []string{gofakeit.BuzzWord()},
		Suggestions:         []string{gofakeit.Question()},
		OverallBalance:      float64(rand.Intn(10) + 1),
	}, nil
}

// ClassifyTopics 模拟话题聚类
func (m *MockAnalysis) ClassifyTopics(ctx context.Context, transcripts []string) (*models.TopicClassification, error) {
	time.Sleep(time.Duration(50+rand.Intn(50)) * time.Millisecond)
	indices := make([]int, len(transcripts))
	for i := range indices {
		indices[i] = i
	}
	return &models.TopicClassification{
		Topics: []models.TopicGroup{
			{Name: gofakeit.BuzzWord(), Description: gofakeit.Sentence(5), SpeechIndices: indices},
		},
	}, nil
}

// generateTranscripts 生成随机发言文本
func generateTranscripts(count int) []string {
	gofakeit.Seed(time.Now().UnixNano())

	transcripts := make([]string, count)
	for i := 0; i < count; i++ {
		transcripts[i] = gofakeit.Paragraph(1, 3, 20, " ")
	}
	return transcripts
}

// benchSessionCreation 基准测试：会话创建
func benchSessionCreation(sessionStore *store.SessionStore, count int) Result {
	result := Result{
		Name:       "会话创建",
		Operations: count,
		MinTime:    time.Hour, // 初始值设为很大
	}

	bar := progressbar.Default(int64(count), "会话创建测试")

	var successCount int
	var totalTime time.Duration

	for i := 0; i < count; i++ {
		start := time.Now()
		sess := sessionStore.CreateSession()
		elapsed := time.Since(start)
		totalTime += elapsed

		if elapsed < result.MinTime {
			result.MinTime = elapsed
		}
		if elapsed > result.MaxTime {
			result.MaxTime = elapsed
		}

		if sess != nil && sess.ID != "" {
			successCount++
		}

		bar.Add(1)
	}

	result.TotalTime = totalTime
	result.AverageTime = totalTime / time.Duration(count)
	result.SuccessRate = float64(successCount) / float64(count) * 100

	return result
}

// benchSpeechSubmission 基准测试：单会话顺序提交发言
// 覆盖完整编排路径：主题检测 + 发言分析 + 覆盖度 + 话题聚类
func benchSpeechSubmission(orchestrator *services.Orchestrator, sessionStore *store.SessionStore, count int) Result {
	result := Result{
		Name:       "发言提交",
		Operations: count,
		MinTime:    time.Hour, // 初始值设为很大
	}

	transcripts := generateTranscripts(count)
	bar := progressbar.Default(int64(count), "发言提交测试")

	ctx := context.Background()
	sess := sessionStore.CreateSession()

	var successCount int
	var totalTime time.Duration

	for i := 0; i < count; i++ {
		start := time.Now()
		entry, err := orchestrator.Submit(ctx, sess, transcripts[i])
		elapsed := time.Since(start)
		totalTime += elapsed

		if elapsed < result.MinTime {
			result.MinTime = elapsed
		}
		if elapsed > result.MaxTime {
			result.MaxTime = elapsed
		}

		if err == nil && entry != nil {
			successCount++
		}

		bar.Add(1)
	}

	result.TotalTime = totalTime
	result.AverageTime = totalTime / time.Duration(count)
	result.SuccessRate = float64(successCount) / float64(count) * 100

	return result
}

// benchSnapshotRead 基准测试：快照读取
func benchSnapshotRead(orchestrator *services.Orchestrator, sessionStore *store.SessionStore, count int) Result {
	result := Result{
		Name:       "快照读取",
		Operations: count,
		MinTime:    time.Hour, // 初始值设为很大
	}

	// 先填充一个带完整派生状态的会话
	ctx := context.Background()
	sess := sessionStore.CreateSession()
	for _, transcript := range generateTranscripts(10) {
		orchestrator.Submit(ctx, sess, transcript)
	}

	bar := progressbar.Default(int64(count), "快照读取测试")

	var successCount int
	var totalTime time.Duration

	for i := 0; i < count; i++ {
		start := time.Now()
		snapshot := sess.Snapshot()
		elapsed := time.Since(start)
		totalTime += elapsed

		if elapsed < result.MinTime {
			result.MinTime = elapsed
		}
		if elapsed > result.MaxTime {
			result.MaxTime = elapsed
		}

		if snapshot.SessionID == sess.ID && len(snapshot.History) == 10 {
			successCount++
		}

		bar.Add(1)
	}

	result.TotalTime = totalTime
	result.AverageTime = totalTime / time.Duration(count)
	result.SuccessRate = float64(successCount) / float64(count) * 100

	return result
}

// benchConcurrentMeetings 基准测试：并发会议
// 多个会议各自顺序提交发言；会议之间互不阻塞
func benchConcurrentMeetings(orchestrator *services.Orchestrator, sessionStore *store.SessionStore, concurrentMeetings int) Result {
	result := Result{
		Name:       "并发会议",
		Operations: concurrentMeetings,
		MinTime:    time.Hour, // 初始值设为很大
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var totalTime time.Duration
	var successCount int

	bar := progressbar.Default(int64(concurrentMeetings), "并发会议测试")

	// 每个会议的发言数
	speechesPerMeeting := 5

	for i := 0; i < concurrentMeetings; i++ {
		wg.Add(1)
		go func(meetingIndex int) {
			defer wg.Done()

			ctx := context.Background()
			sess := sessionStore.CreateSession()
			transcripts := generateTranscripts(speechesPerMeeting)

			start := time.Now()
			failed := false
			for _, transcript := range transcripts {
				if _, err := orchestrator.Submit(ctx, sess, transcript); err != nil {
					fmt.Printf("会议 %d 提交失败: %v\n", meetingIndex, err)
					failed = true
					break
				}
			}
			elapsed := time.Since(start)

			mu.Lock()
			totalTime += elapsed
			if elapsed < result.MinTime {
				result.MinTime = elapsed
			}
			if elapsed > result.MaxTime {
				result.MaxTime = elapsed
			}
			if !failed {
				successCount++
			}
			mu.Unlock()

			bar.Add(1)
		}(i)
	}

	wg.Wait()

	result.TotalTime = totalTime
	result.AverageTime = totalTime / time.Duration(concurrentMeetings)
	result.SuccessRate = float64(successCount) / float64(concurrentMeetings) * 100

	return result
}

// createReport 生成基准测试报告
func createReport(suite Suite, filePath string) error {
	data, err := json.MarshalIndent(suite, "", "  ")
	if err != nil {
		return err
	}

	err = os.WriteFile(filePath, data, 0644)
	if err != nil {
		return err
	}

	// 生成可读报告
	file, err := os.Create(filePath + ".txt")
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "Meeting Mind 性能基准测试报告\n")
	fmt.Fprintf(file, "==============================\n\n")
	fmt.Fprintf(file, "测试开始时间: %s\n", suite.StartTime.Format(time.RFC3339))
	fmt.Fprintf(file, "测试结束时间: %s\n", suite.EndTime.Format(time.RFC3339))
	fmt.Fprintf(file, "测试环境: %s\n", suite.Environment)
	fmt.Fprintf(file, "测试数据量: %d\n\n", suite.TestDataSize)
	fmt.Fprintf(file, "测试结果:\n")

	for _, result := range suite.Results {
		fmt.Fprintf(file, "-------------------------------\n")
		fmt.Fprintf(file, "测试: %s\n", result.Name)
		fmt.Fprintf(file, "操作数: %d\n", result.Operations)
		fmt.Fprintf(file, "总时间: %s\n", result.TotalTime)
		fmt.Fprintf(file, "平均时间: %s\n", result.AverageTime)
		fmt.Fprintf(file, "最小时间: %s\n", result.MinTime)
		fmt.Fprintf(file, "最大时间: %s\n", result.MaxTime)
		fmt.Fprintf(file, "成功率: %.2f%%\n", result.SuccessRate)
	}

	fmt.Fprintf(file, "\n==============================\n")
	fmt.Fprintf(file, "注: 此测试结果仅供参考，实际性能取决于分析服务的响应速度。\n")

	return nil
}

func main() {
	// 设置测试数量
	testCount := 100
	speechCount := 30
	concurrentMeetingCount := 20

	// 模拟分析服务 + 真实编排链路
	client := &MockAnalysis{}
	sessionStore := store.NewSessionStore(30 * time.Minute)
	orchestrator := services.NewOrchestrator(client, nil, "general")

	// 创建测试套件
	suite := Suite{
		StartTime:    time.Now(),
		Environment:  fmt.Sprintf("%d核CPU, %dGB内存", 4, 8),
		TestDataSize: testCount,
	}

	fmt.Printf("开始Meeting Mind性能基准测试，样本数: %d\n\n", testCount)

	// 执行测试
	results := []Result{
		benchSessionCreation(sessionStore, testCount),
		benchSpeechSubmission(orchestrator, sessionStore, speechCount),
		benchSnapshotRead(orchestrator, sessionStore, testCount),
		benchConcurrentMeetings(orchestrator, sessionStore, concurrentMeetingCount),
	}

	suite.Results = results
	suite.EndTime = time.Now()

	// 确保报告目录存在
	reportDir := filepath.Join("report")
	err := os.MkdirAll(reportDir, 0755)
	if err != nil {
		log.Fatalf("创建报告目录失败: %v", err)
	}

	// 生成报告
	reportPath := filepath.Join(reportDir,
		fmt.Sprintf("benchmark-report-%s.json", time.Now().Format("20060102-150405")))

	err = createReport(suite, reportPath)
	if err != nil {
		log.Fatalf("生成报告失败: %v", err)
	}

	// 打印结果
	fmt.Printf("\n基准测试完成，结果摘要:\n\n")

	for _, result := range results {
		fmt.Printf("%-15s: 平均 %8s, 成功率 %.2f%%\n",
			result.Name,
			result.AverageTime.Round(time.Millisecond),
			result.SuccessRate,
		)
	}

	fmt.Printf("\n详细报告已保存至: %s\n", reportPath)
}
