package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/meetingmind/service/internal/models"
)

// Orchestrator 增量分析编排器
// 每条新发言执行一个原子编排步骤：
//
//	1. 空文本拒绝
//	2. 构造临时历史（已提交发言 + 新发言文本）
//	3. 主题检测门（一次性，失败不中断）
//	4. 决定本次分析主题：刚检测到的主题 > 缓存主题 > 默认主题
//	5. 发言分析，成功则提交历史条目；失败则整步中止，
//	   但第3步已落地的主题检测保留（独立且幂等的副作用，不回滚）
//	6. 覆盖度分析：刚检测到的主题 > 缓存主题（不含默认值）；无主题或历史不足则清空
//	7. 话题聚类（内部按历史长度自门控）
//	8. 推送最新快照给可视化端
//
// 同一会话的编排步骤严格串行；并发提交被拒绝（ErrBusy），
// 避免并发步骤破坏一次性主题门和历史追加顺序。
// 语音采集路径必须把定稿文本直接传入Submit，与手动提交走同一入口，
// 不允许"等一段时间再读会话状态"的定时器触发方式。
type Orchestrator struct {
	themeCache *ThemeCache
	analyzer   *UtteranceAnalyzer
	gaps       *GapEvaluator
	topics     *TopicClassifier
	ws         *WebSocketManager
}

// NewOrchestrator 创建编排器；ws可为nil（无可视化消费端时）
func NewOrchestrator(client AnalysisService, ws *WebSocketManager, defaultTheme string) *Orchestrator {
	return &Orchestrator{
		themeCache: NewThemeCache(client, defaultTheme),
		analyzer:   NewUtteranceAnalyzer(client),
		gaps:       NewGapEvaluator(client),
		topics:     NewTopicClassifier(client),
		ws:         ws,
	}
}

// Submit 处理一条新发言的完整编排步骤
// 返回已提交的历史条目；失败时会话状态不变（已落地的主题检测除外）
func (o *Orchestrator) Submit(ctx context.Context, sess *models.Session, transcript string) (*models.HistoryEntry, error) {
	text := strings.TrimSpace(transcript)
	if text == "" {
		return nil, ErrEmptyInput
	}

	if !sess.TryBegin() {
		log.Printf("🚧 [编排] 会话 %s 有编排步骤在执行，拒绝并发提交", sess.ID)
		return nil, ErrBusy
	}
	defer sess.End()

	startTime := time.Now()
	sess.Touch()
	log.Printf("▶️ [编排] 会话 %s 开始处理第 %d 条发言", sess.ID, sess.Len()+1)

	// 临时历史：新发言参与主题检测的长度判定，但尚未提交
	provisional := sess.TranscriptsWith(text)

	// 一次性主题检测（失败退化，不中断本步骤）
	detected := o.themeCache.MaybeDetect(ctx, sess, provisional)

	// 本次分析主题：刚检测到的主题 > 缓存主题 > 默认
	themeID := o.themeCache.EffectiveTheme(sess)
	if detected != nil {
		themeID = detected.Theme
	}

	record, err := o.analyzer.Analyze(ctx, text, themeID)
	if err != nil {
		// 整步中止：历史不变，覆盖度/话题不变；主题检测不回滚
		log.Printf("❌ [编排] 会话 %s 发言分析失败，本次提交中止: %v", sess.ID, err)
		return nil, err
	}

	entry := sess.Append(text, record)
	finalized := sess.Transcripts()

	// 覆盖度分析的主题只取确定值（刚检测到的或已缓存的），不用默认值兜底：
	// 主题未确定时覆盖度分析没有意义，直接清空
	gapThemeID := ""
	if detected != nil {
		gapThemeID = detected.Theme
	} else if theme := sess.Theme(); theme != nil {
		gapThemeID = theme.Theme
	}
	if gapThemeID != "" && len(finalized) >= GapEvaluationThreshold {
		sess.SetGaps(o.gaps.Evaluate(ctx, finalized, gapThemeID))
	} else {
		log.Printf("📊 [编排] 会话 %s 主题未确定或历史不足，清空覆盖度状态", sess.ID)
		sess.SetGaps(nil)
	}

	// 话题聚类按长度自门控
	sess.SetTopics(o.topics.Classify(ctx, finalized))

	o.publish(sess)

	log.Printf("⏹ [编排] 会话 %s 第 %d 条发言处理完成，耗时: %v",
		sess.ID, entry.Utterance.Index+1, time.Since(startTime))
	return &entry, nil
}

// publish 向该会话的可视化连接推送最新快照
func (o *Orchestrator) publish(sess *models.Session) {
	if o.ws == nil {
		return
	}
	o.ws.BroadcastSessionUpdate(sess.ID, sess.Snapshot())
}
