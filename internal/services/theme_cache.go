package services

import (
	"context"
	"log"

	"github.com/meetingmind/service/internal/models"
)

// ThemeDetectionThreshold 触发主题检测所需的最小发言数（含待分析发言）
const ThemeDetectionThreshold = 2

// ThemeCache 一次性主题检测门
// 状态（Unset/Pending/Detected）落在会话上，本类型只封装门限判定和检测调用
// 检测在会话生命周期内最多成功一次；成功后任何输入都不会再触发检测
type ThemeCache struct {
	client       AnalysisService
	defaultTheme string
}

// NewThemeCache 创建主题检测门
func NewThemeCache(client AnalysisService, defaultTheme string) *ThemeCache {
	if defaultTheme == "" {
		defaultTheme = models.DefaultThemeID
	}
	return &ThemeCache{
		client:       client,
		defaultTheme: defaultTheme,
	}
}

// MaybeDetect 条件满足时触发主题检测
// 仅当 临时历史长度 >= 2 且主题未检测 时调用外部服务，其余情况为无操作返回nil
// 检测失败不向调用方传播：状态退回Unset，本次分析退化为默认主题
func (tc *ThemeCache) MaybeDetect(ctx context.Context, sess *models.Session, provisional []string) *models.Theme {
	if len(provisional) < ThemeDetectionThreshold {
		return nil
	}
	if !sess.SetThemePending() {
		// 已检测或检测进行中，一次性门不再触发
		return nil
	}

	log.Printf("🎯 [主题检测] 会话 %s 触发主题检测，累计发言数: %d", sess.ID, len(provisional))

	theme, err := tc.client.DetectTheme(ctx, provisional)
	if err != nil {
		log.Printf("⚠️ [主题检测] 会话 %s 检测失败，本次退化为默认主题: %v", sess.ID, err)
		sess.ResetThemeState()
		return nil
	}

	sess.SetTheme(theme)
	log.Printf("✅ [主题检测] 会话 %s 检测到主题: %s (%s)，置信度: %.0f",
		sess.ID, theme.Theme, theme.ThemeName, theme.Confidence)
	return theme
}

// EffectiveTheme 返回生效的主题ID：已检测主题优先，否则为默认值
func (tc *ThemeCache) EffectiveTheme(sess *models.Session) string {
	if theme := sess.Theme(); theme != nil {
		return theme.Theme
	}
	return tc.defaultTheme
}
