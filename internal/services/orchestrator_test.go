package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meetingmind/service/internal/models"
)

// TestOrchestratorIncrementalFlow 三条发言的典型增量流程：
// 第1条只分析；第2条触发主题检测和覆盖度分析；第3条不再检测主题，追加话题聚类
func TestOrchestratorIncrementalFlow(t *testing.T) {
	fake := newFakeAnalysis()
	o := NewOrchestrator(fake, nil, "")
	sess := models.NewSession("s1")
	ctx := context.Background()

	// --- 第1条发言 ---
	entry, err := o.Submit(ctx, sess, "新しい設備を導入すべきだと思います")
	if err != nil {
		t.Fatalf("第1条提交失败: %v", err)
	}
	if entry.Utterance.Index != 0 {
		t.Errorf("第1条序号应为0, got=%d", entry.Utterance.Index)
	}
	if fake.detectCallCount() != 0 {
		t.Error("1条发言不应触发主题检测")
	}
	if fake.analyzeCalls[0].themeID != models.DefaultThemeID {
		t.Errorf("无主题时分析应用默认主题, got=%s", fake.analyzeCalls[0].themeID)
	}
	if fake.gapCallCount() != 0 || sess.Gaps() != nil {
		t.Error("主题未确定时不应做覆盖度分析")
	}
	if sess.Topics() != nil {
		t.Error("1条发言不应有话题聚类结果")
	}

	// --- 第2条发言：触发检测 ---
	entry, err = o.Submit(ctx, sess, "初期費用が高すぎます")
	if err != nil {
		t.Fatalf("第2条提交失败: %v", err)
	}
	if entry.Utterance.Index != 1 {
		t.Errorf("第2条序号应为1, got=%d", entry.Utterance.Index)
	}
	if fake.detectCallCount() != 1 {
		t.Fatalf("第2条应触发主题检测一次, calls=%d", fake.detectCallCount())
	}
	// 检测载荷是临时历史：已提交1条 + 新发言
	fake.mu.Lock()
	detectPayload := fake.detectCalls[0]
	fake.mu.Unlock()
	if len(detectPayload) != 2 || detectPayload[1] != "初期費用が高すぎます" {
		t.Errorf("检测载荷应为临时历史: %+v", detectPayload)
	}
	// 刚检测到的主题立即用于本条分析，不等下一条
	if fake.analyzeCalls[1].themeID != "equipment_investment" {
		t.Errorf("刚检测到的主题应直接用于本次分析, got=%s", fake.analyzeCalls[1].themeID)
	}
	if fake.gapCallCount() != 1 {
		t.Errorf("主题确定且历史达2条应做覆盖度分析, calls=%d", fake.gapCallCount())
	}
	if sess.Gaps() == nil {
		t.Error("覆盖度结果应已写入会话")
	}
	if fake.topicCallCount() != 0 {
		t.Error("2条发言不应触发话题聚类")
	}

	// --- 第3条发言：不再检测，追加聚类 ---
	entry, err = o.Submit(ctx, sess, "安全面のリスクはどうでしょうか")
	if err != nil {
		t.Fatalf("第3条提交失败: %v", err)
	}
	if fake.detectCallCount() != 1 {
		t.Error("主题已检测后不应再次检测")
	}
	if fake.topicCallCount() != 1 {
		t.Errorf("3条发言应触发话题聚类, calls=%d", fake.topicCallCount())
	}
	if sess.Topics() == nil {
		t.Error("话题聚类结果应已写入会话")
	}
	if fake.gapCallCount() != 2 {
		t.Errorf("覆盖度应随每条发言全量重算, calls=%d", fake.gapCallCount())
	}

	// 历史追加顺序与到达顺序一致
	history := sess.History()
	if len(history) != 3 {
		t.Fatalf("历史长度应为3, got=%d", len(history))
	}
	for i, entry := range history {
		if entry.Utterance.Index != i {
			t.Errorf("第 %d 条序号错位: %d", i, entry.Utterance.Index)
		}
		if entry.Analysis == nil {
			t.Errorf("第 %d 条缺少分析记录", i)
		}
	}
}

func TestOrchestratorEmptyInput(t *testing.T) {
	fake := newFakeAnalysis()
	o := NewOrchestrator(fake, nil, "")
	sess := models.NewSession("s1")

	if _, err := o.Submit(context.Background(), sess, "   \n "); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("空文本应返回ErrEmptyInput, got=%v", err)
	}
	if sess.Len() != 0 || fake.analyzeCallCount() != 0 {
		t.Error("空文本不应产生任何副作用")
	}
}

// TestOrchestratorAnalysisFailureAtomic 发言分析失败时整步中止：
// 历史、覆盖度、话题全部保持提交前的状态
func TestOrchestratorAnalysisFailureAtomic(t *testing.T) {
	fake := newFakeAnalysis()
	o := NewOrchestrator(fake, nil, "")
	sess := models.NewSession("s1")
	ctx := context.Background()

	if _, err := o.Submit(ctx, sess, "発言A"); err != nil {
		t.Fatalf("第1条提交失败: %v", err)
	}

	fake.analyzeErr = errors.New("接続タイムアウト")
	if _, err := o.Submit(ctx, sess, "発言B"); !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("分析失败应返回ErrAnalysisFailed, got=%v", err)
	}

	if sess.Len() != 1 {
		t.Errorf("失败的发言不应进入历史, len=%d", sess.Len())
	}
	// 第2条发言达到门限，主题检测在分析失败前已成功落地：不回滚
	if sess.ThemeState() != models.ThemeDetected {
		t.Errorf("已落地的主题检测不应回滚, state=%v", sess.ThemeState())
	}

	// 失败后恢复：第3次提交从上次成功的状态继续
	fake.analyzeErr = nil
	entry, err := o.Submit(ctx, sess, "発言B'")
	if err != nil {
		t.Fatalf("恢复提交失败: %v", err)
	}
	if entry.Utterance.Index != 1 {
		t.Errorf("恢复后序号应接续, got=%d", entry.Utterance.Index)
	}
	if fake.detectCallCount() != 1 {
		t.Error("主题已检测，恢复提交不应再次检测")
	}
}

// TestOrchestratorGapSkippedWithoutTheme 主题检测始终失败时，
// 覆盖度分析永远不触发：不允许用默认主题兜底
func TestOrchestratorGapSkippedWithoutTheme(t *testing.T) {
	fake := newFakeAnalysis()
	fake.themeErr = errors.New("検出失敗")
	o := NewOrchestrator(fake, nil, "")
	sess := models.NewSession("s1")
	ctx := context.Background()

	for _, text := range []string{"発言A", "発言B", "発言C"} {
		if _, err := o.Submit(ctx, sess, text); err != nil {
			t.Fatalf("提交失败: %v", err)
		}
	}

	if fake.gapCallCount() != 0 {
		t.Errorf("主题未确定不应做覆盖度分析, calls=%d", fake.gapCallCount())
	}
	if sess.Gaps() != nil {
		t.Error("覆盖度状态应为空")
	}
	// 话题聚类不依赖主题，3条发言时照常触发
	if fake.topicCallCount() != 1 {
		t.Errorf("话题聚类应照常触发, calls=%d", fake.topicCallCount())
	}
	// 每次达到门限都重试检测：第2条和第3条各一次
	if fake.detectCallCount() != 2 {
		t.Errorf("检测失败应逐条重试, calls=%d", fake.detectCallCount())
	}
}

// TestOrchestratorBestEffortFailureClears 覆盖度/话题聚类失败清空旧结果，
// 但提交本身成功
func TestOrchestratorBestEffortFailureClears(t *testing.T) {
	fake := newFakeAnalysis()
	o := NewOrchestrator(fake, nil, "")
	sess := models.NewSession("s1")
	ctx := context.Background()

	for _, text := range []string{"発言A", "発言B", "発言C"} {
		if _, err := o.Submit(ctx, sess, text); err != nil {
			t.Fatalf("提交失败: %v", err)
		}
	}
	if sess.Gaps() == nil || sess.Topics() == nil {
		t.Fatal("前置状态应有覆盖度和话题结果")
	}

	fake.gapsErr = errors.New("接続拒否")
	fake.topicsErr = errors.New("接続拒否")
	if _, err := o.Submit(ctx, sess, "発言D"); err != nil {
		t.Fatalf("尽力而为路径失败不应中止提交: %v", err)
	}
	if sess.Len() != 4 {
		t.Errorf("提交应成功, len=%d", sess.Len())
	}
	if sess.Gaps() != nil {
		t.Error("覆盖度失败应清空旧结果")
	}
	if sess.Topics() != nil {
		t.Error("话题聚类失败应清空旧结果")
	}
}

// TestOrchestratorBusyReject 同一会话并发提交被拒绝
func TestOrchestratorBusyReject(t *testing.T) {
	fake := newFakeAnalysis()
	fake.analyzeStarted = make(chan struct{}, 1)
	fake.analyzeBlock = make(chan struct{})
	o := NewOrchestrator(fake, nil, "")
	sess := models.NewSession("s1")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(ctx, sess, "発言A")
		done <- err
	}()

	// 等第一次提交进入分析阶段
	select {
	case <-fake.analyzeStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("第一次提交未开始分析")
	}

	if _, err := o.Submit(ctx, sess, "発言B"); !errors.Is(err, ErrBusy) {
		t.Errorf("并发提交应返回ErrBusy, got=%v", err)
	}

	close(fake.analyzeBlock)
	if err := <-done; err != nil {
		t.Fatalf("第一次提交应成功: %v", err)
	}
	if sess.Len() != 1 {
		t.Errorf("只应落地第一次提交, len=%d", sess.Len())
	}

	// 步骤结束后提交门放行
	fake.mu.Lock()
	fake.analyzeStarted = nil
	fake.analyzeBlock = nil
	fake.mu.Unlock()
	if _, err := o.Submit(ctx, sess, "発言C"); err != nil {
		t.Errorf("步骤结束后应可继续提交: %v", err)
	}
}

// TestOrchestratorDifferentSessionsIndependent 不同会话互不阻塞、互不共享状态
func TestOrchestratorDifferentSessionsIndependent(t *testing.T) {
	fake := newFakeAnalysis()
	o := NewOrchestrator(fake, nil, "")
	ctx := context.Background()

	sessA := models.NewSession("sA")
	sessB := models.NewSession("sB")

	if _, err := o.Submit(ctx, sessA, "会話Aの発言1"); err != nil {
		t.Fatalf("会话A提交失败: %v", err)
	}
	if _, err := o.Submit(ctx, sessA, "会話Aの発言2"); err != nil {
		t.Fatalf("会话A提交失败: %v", err)
	}
	if _, err := o.Submit(ctx, sessB, "会話Bの発言1"); err != nil {
		t.Fatalf("会话B提交失败: %v", err)
	}

	if sessA.Len() != 2 || sessB.Len() != 1 {
		t.Errorf("历史互相污染: lenA=%d lenB=%d", sessA.Len(), sessB.Len())
	}
	if sessA.Theme() == nil {
		t.Error("会话A达到门限应已检测主题")
	}
	if sessB.Theme() != nil {
		t.Error("会话B未达门限不应有主题")
	}
}
