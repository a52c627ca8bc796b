package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestServer 构造按路径分发的假分析服务
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, handler := range handlers {
		mux.HandleFunc(path, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeUtterance(t *testing.T) {
	var gotReq analyzeRequest
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/analyze": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("请求方法应为POST, got=%s", r.Method)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type不匹配: %s", ct)
			}
			if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
				t.Errorf("请求解析失败: %v", err)
			}
			json.NewEncoder(w).Encode(analyzeResponse{
				Success:  true,
				Analysis: "```json\n{\"topic\":\"コスト\"}\n```",
			})
		},
	})

	c := NewClient(srv.URL, 0)
	raw, err := c.AnalyzeUtterance(context.Background(), "初期費用が高い", "equipment_investment")
	if err != nil {
		t.Fatalf("调用失败: %v", err)
	}
	// 返回原始文本，清洗由上层负责
	if !strings.Contains(raw, "```json") {
		t.Errorf("应返回未清洗的原始文本: %q", raw)
	}
	if gotReq.Transcript != "初期費用が高い" || gotReq.Theme != "equipment_investment" {
		t.Errorf("请求载荷不匹配: %+v", gotReq)
	}
}

func TestAnalyzeUtteranceServiceFailure(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/analyze": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(analyzeResponse{
				Success: false,
				Error:   "テーマが不正です",
			})
		},
	})

	c := NewClient(srv.URL, 0)
	if _, err := c.AnalyzeUtterance(context.Background(), "発言", "general"); err == nil {
		t.Error("success=false应返回错误")
	} else if !strings.Contains(err.Error(), "テーマが不正です") {
		t.Errorf("错误信息应携带服务端消息: %v", err)
	}
}

func TestAnalyzeUtteranceHTTPError(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/analyze": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal error", http.StatusInternalServerError)
		},
	})

	c := NewClient(srv.URL, 0)
	if _, err := c.AnalyzeUtterance(context.Background(), "発言", "general"); err == nil {
		t.Error("非2xx状态码应返回错误")
	}
}

func TestDetectTheme(t *testing.T) {
	var gotReq historiesRequest
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/detect-theme": func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
				t.Errorf("请求解析失败: %v", err)
			}
			json.NewEncoder(w).Encode(themeResponse{
				Success:    true,
				Theme:      "equipment_investment",
				ThemeName:  "設備投資・設備導入",
				Dimensions: map[string]string{"cost_concern": "コスト重視度"},
				Confidence: 8,
				Reason:     "設備とコストの話題が中心",
			})
		},
	})

	c := NewClient(srv.URL, 0)
	theme, err := c.DetectTheme(context.Background(), []string{"発言A", "発言B"})
	if err != nil {
		t.Fatalf("调用失败: %v", err)
	}
	if theme.Theme != "equipment_investment" || theme.Confidence != 8 {
		t.Errorf("主题解析不匹配: %+v", theme)
	}
	if len(gotReq.Histories) != 2 || gotReq.Histories[0].Transcript != "発言A" {
		t.Errorf("历史载荷不匹配: %+v", gotReq.Histories)
	}
	// 主题检测不携带theme字段
	if gotReq.Theme != "" {
		t.Errorf("主题检测请求不应携带theme: %s", gotReq.Theme)
	}
}

func TestAnalyzeGaps(t *testing.T) {
	var gotReq historiesRequest
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/analyze-gaps": func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&gotReq)
			w.Write([]byte(`{"success":true,"has_gaps":true,"analysis":{` +
				`"coverage":{"cost_concern":8,"safety_concern":2},` +
				`"missing_perspectives":["安全性重視度"],` +
				`"suggestions":["安全面はどうですか？"],` +
				`"overall_balance":4}}`))
		},
	})

	c := NewClient(srv.URL, 0)
	gaps, err := c.AnalyzeGaps(context.Background(), []string{"発言A", "発言B"}, "equipment_investment")
	if err != nil {
		t.Fatalf("调用失败: %v", err)
	}
	if gaps == nil {
		t.Fatal("has_gaps=true应返回结果")
	}
	if gaps.Coverage["cost_concern"] != 8 || gaps.OverallBalance != 4 {
		t.Errorf("覆盖度解析不匹配: %+v", gaps)
	}
	if gotReq.Theme != "equipment_investment" {
		t.Errorf("覆盖度请求应携带theme: %s", gotReq.Theme)
	}
}

func TestAnalyzeGapsNoGaps(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/analyze-gaps": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true,"has_gaps":false}`))
		},
	})

	c := NewClient(srv.URL, 0)
	gaps, err := c.AnalyzeGaps(context.Background(), []string{"A", "B"}, "general")
	if err != nil {
		t.Fatalf("无缺口不应报错: %v", err)
	}
	if gaps != nil {
		t.Errorf("has_gaps=false应返回nil, got=%+v", gaps)
	}
}

func TestClassifyTopics(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/classify-topics": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true,"classification":{"topics":[` +
				`{"name":"コスト","description":"費用の議論","speech_indices":[0,2]},` +
				`{"name":"安全性","description":"安全面の議論","speech_indices":[1]}]}}`))
		},
	})

	c := NewClient(srv.URL, 0)
	classification, err := c.ClassifyTopics(context.Background(), []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("调用失败: %v", err)
	}
	if len(classification.Topics) != 2 {
		t.Fatalf("话题数不匹配: %d", len(classification.Topics))
	}
	if got := classification.Topics[0].SpeechIndices; len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("发言索引不匹配: %+v", got)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/health": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"healthy","service":"meeting-minutes-api"}`))
		},
	})

	c := NewClient(srv.URL, 0)
	if err := c.Health(context.Background()); err != nil {
		t.Errorf("健康检查应通过: %v", err)
	}
}

func TestHealthUnhealthy(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/health": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"degraded"}`))
		},
	})

	c := NewClient(srv.URL, 0)
	if err := c.Health(context.Background()); err == nil {
		t.Error("非healthy状态应返回错误")
	}
}

func TestHealthUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0)
	if err := c.Health(context.Background()); err == nil {
		t.Error("服务不可达应返回错误")
	}
}
