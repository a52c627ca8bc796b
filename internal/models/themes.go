package models

// DefaultThemeID 主题未检测时使用的兜底主题ID
const DefaultThemeID = "general"

// KnownThemes 分析服务支持的主题目录
// 与后端的DIMENSION_SETS定义一一对应，未知主题ID统一回退到general
var KnownThemes = map[string]Theme{
	"equipment_investment": {
		Theme:       "equipment_investment",
		ThemeName:   "設備投資・設備導入",
		Description: "設備投資や新規導入の検討に適した視点",
		Dimensions: map[string]string{
			"cost_concern":     "コスト重視度",
			"safety_concern":   "安全性重視度",
			"efficiency_focus": "効率性重視度",
			"people_focus":     "人材育成重視度",
			"time_horizon":     "時間軸",
		},
	},
	"hr_evaluation": {
		Theme:       "hr_evaluation",
		ThemeName:   "人事評価・採用",
		Description: "人事評価や採用判断に適した視点",
		Dimensions: map[string]string{
			"performance":       "成果・実績",
			"skill_development": "能力開発",
			"team_contribution": "チーム貢献",
			"leadership":        "リーダーシップ",
			"potential":         "将来性",
		},
	},
	"product_development": {
		Theme:       "product_development",
		ThemeName:   "新製品開発",
		Description: "新製品・サービス開発に適した視点",
		Dimensions: map[string]string{
			"market_fit":            "市場性",
			"technical_feasibility": "技術実現性",
			"competitive_advantage": "競合優位性",
			"profitability":         "収益性",
			"brand_fit":             "ブランド適合性",
		},
	},
	"budget_planning": {
		Theme:       "budget_planning",
		ThemeName:   "予算策定・コスト削減",
		Description: "予算や投資判断に適した視点",
		Dimensions: map[string]string{
			"priority":            "優先度",
			"roi":                 "費用対効果",
			"risk":                "リスク",
			"feasibility":         "実行可能性",
			"strategic_alignment": "戦略整合性",
		},
	},
	"process_improvement": {
		Theme:       "process_improvement",
		ThemeName:   "業務改善・プロセス改革",
		Description: "業務プロセスの改善に適した視点",
		Dimensions: map[string]string{
			"efficiency":     "効率性",
			"quality":        "品質向上",
			"workload":       "従業員負担",
			"implementation": "導入難易度",
			"sustainability": "持続可能性",
		},
	},
	"general": {
		Theme:       "general",
		ThemeName:   "その他 (汎用)",
		Description: "汎用的な評価視点",
		Dimensions: map[string]string{
			"cost_concern":     "コスト",
			"quality":          "品質",
			"efficiency_focus": "効率性",
			"people_focus":     "人材",
			"risk":             "リスク",
		},
	},
}

// ResolveTheme 根据主题ID查找主题定义，未知ID回退到general
func ResolveTheme(themeID string) Theme {
	if theme, ok := KnownThemes[themeID]; ok {
		return theme
	}
	return KnownThemes[DefaultThemeID]
}
