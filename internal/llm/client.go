// Package llm 封装对 Meeting Mind 分析服务的HTTP调用
// 分析服务是一个JSON端点（背后是Gemini），提供四项能力：
// 单条发言分析、主题检测、覆盖度分析、话题聚类
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/meetingmind/service/internal/models"
	"github.com/meetingmind/service/internal/services"
)

// 编译期检查：Client实现services.AnalysisService
var _ services.AnalysisService = (*Client)(nil)

// DefaultTimeout 单次分析调用的默认超时
// 分析服务内部要等一次LLM生成，超时需要给得比普通API宽裕
const DefaultTimeout = 60 * time.Second

// Client Meeting Mind 分析服务客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建分析服务客户端
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// =============================================================================
// 请求/响应线上格式（与分析服务的JSON契约一致）
// =============================================================================

// analyzeRequest 单条发言分析请求
type analyzeRequest struct {
	Transcript string `json:"transcript"`
	Theme      string `json:"theme"`
}

// transcriptItem 历史条目的线上形式（只携带文本）
type transcriptItem struct {
	Transcript string `json:"transcript"`
}

// historiesRequest 全量历史类请求（主题检测/覆盖度分析/话题聚类）
type historiesRequest struct {
	Histories []transcriptItem `json:"histories"`
	Theme     string           `json:"theme,omitempty"`
}

// analyzeResponse 单条发言分析响应；Analysis为待清洗的原始文本
type analyzeResponse struct {
	Success        bool              `json:"success"`
	Analysis       string            `json:"analysis"`
	ThemeUsed      string            `json:"theme_used,omitempty"`
	DimensionsUsed map[string]string `json:"dimensions_used,omitempty"`
	Error          string            `json:"error,omitempty"`
	Message        string            `json:"message,omitempty"`
}

// themeResponse 主题检测响应
type themeResponse struct {
	Success     bool              `json:"success"`
	Theme       string            `json:"theme"`
	ThemeName   string            `json:"theme_name"`
	Description string            `json:"description"`
	Dimensions  map[string]string `json:"dimensions"`
	Confidence  float64           `json:"confidence"`
	Reason      string            `json:"reason,omitempty"`
	Error       string            `json:"error,omitempty"`
	Message     string            `json:"message,omitempty"`
}

// gapsResponse 覆盖度分析响应；服务端已完成JSON提取，Analysis为结构化结果
type gapsResponse struct {
	Success  bool                `json:"success"`
	HasGaps  bool                `json:"has_gaps"`
	Analysis *models.GapAnalysis `json:"analysis,omitempty"`
	Error    string              `json:"error,omitempty"`
	Message  string              `json:"message,omitempty"`
}

// topicsResponse 话题聚类响应
type topicsResponse struct {
	Success        bool                        `json:"success"`
	Classification *models.TopicClassification `json:"classification,omitempty"`
	Error          string                      `json:"error,omitempty"`
	Message        string                      `json:"message,omitempty"`
}

// healthResponse 健康检查响应
type healthResponse struct {
	Status string `json:"status"`
}

// =============================================================================
// 四项能力
// =============================================================================

// AnalyzeUtterance 分析单条发言，返回服务端的原始文本输出（由调用方清洗）
func (c *Client) AnalyzeUtterance(ctx context.Context, transcript, themeID string) (string, error) {
	var resp analyzeResponse
	if err := c.post(ctx, "/analyze", analyzeRequest{
		Transcript: transcript,
		Theme:      themeID,
	}, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("分析服务返回失败: %s", firstNonEmpty(resp.Error, resp.Message))
	}
	return resp.Analysis, nil
}

// DetectTheme 基于累计发言文本检测会议主题
func (c *Client) DetectTheme(ctx context.Context, transcripts []string) (*models.Theme, error) {
	var resp themeResponse
	if err := c.post(ctx, "/detect-theme", historiesRequest{
		Histories: toTranscriptItems(transcripts),
	}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("主题检测返回失败: %s", firstNonEmpty(resp.Error, resp.Message))
	}
	return &models.Theme{
		Theme:       resp.Theme,
		ThemeName:   resp.ThemeName,
		Description: resp.Description,
		Dimensions:  resp.Dimensions,
		Confidence:  resp.Confidence,
		Reason:      resp.Reason,
	}, nil
}

// AnalyzeGaps 基于全量历史分析议论覆盖度
// 服务端判定无缺口（has_gaps=false）时返回(nil, nil)
func (c *Client) AnalyzeGaps(ctx context.Context, transcripts []string, themeID string) (*models.GapAnalysis, error) {
	var resp gapsResponse
	if err := c.post(ctx, "/analyze-gaps", historiesRequest{
		Histories: toTranscriptItems(transcripts),
		Theme:     themeID,
	}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("覆盖度分析返回失败: %s", firstNonEmpty(resp.Error, resp.Message))
	}
	if !resp.HasGaps || resp.Analysis == nil {
		return nil, nil
	}
	return resp.Analysis, nil
}

// ClassifyTopics 基于全量历史做话题聚类
func (c *Client) ClassifyTopics(ctx context.Context, transcripts []string) (*models.TopicClassification, error) {
	var resp topicsResponse
	if err := c.post(ctx, "/classify-topics", historiesRequest{
		Histories: toTranscriptItems(transcripts),
	}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("话题聚类返回失败: %s", firstNonEmpty(resp.Error, resp.Message))
	}
	return resp.Classification, nil
}

// Health 探测分析服务可达性
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("构造健康检查请求失败: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("分析服务不可达: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("分析服务健康检查异常，状态码: %d", resp.StatusCode)
	}
	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("健康检查响应解析失败: %w", err)
	}
	if health.Status != "healthy" {
		return fmt.Errorf("分析服务状态异常: %s", health.Status)
	}
	return nil
}

// =============================================================================
// 内部工具
// =============================================================================

// post 发送JSON请求并解析响应
// 非2xx状态码视为传输层失败；响应体中的success标记由各能力方法判定
func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	startTime := time.Now()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("请求序列化失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Printf("📤 [分析服务] POST %s, 请求大小: %d 字节", path, len(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("❌ [分析服务] POST %s 调用失败: %v", path, err)
		return fmt.Errorf("分析服务调用失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("❌ [分析服务] POST %s 状态码异常: %d, 响应: %s", path, resp.StatusCode, truncate(string(respBody), 200))
		return fmt.Errorf("分析服务返回状态码 %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("响应解析失败: %w", err)
	}

	log.Printf("📥 [分析服务] POST %s 完成，耗时: %v, 响应大小: %d 字节",
		path, time.Since(startTime), len(respBody))
	return nil
}

func toTranscriptItems(transcripts []string) []transcriptItem {
	items := make([]transcriptItem, len(transcripts))
	for i, t := range transcripts {
		items[i] = transcriptItem{Transcript: t}
	}
	return items
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "未知错误"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
