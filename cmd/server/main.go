package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/meetingmind/service/internal/config"
	"github.com/meetingmind/service/internal/llm"
	"github.com/meetingmind/service/internal/services"
	"github.com/meetingmind/service/internal/store"
)

// serverComponents 服务端共享组件
type serverComponents struct {
	config       *config.Config
	client       *llm.Client
	sessionStore *store.SessionStore
	wsManager    *services.WebSocketManager
	orchestrator *services.Orchestrator
	cancel       context.CancelFunc
}

// initializeServices 初始化共享服务组件
func initializeServices() *serverComponents {
	cfg := config.Load()
	log.Printf("加载配置: %s", cfg.String())

	client := llm.NewClient(cfg.MeetingAPIURL, cfg.MeetingAPITimeout)

	// 启动时探测分析服务可达性，不可达只警告不退出
	ctx, cancelProbe := context.WithTimeout(context.Background(), 5*time.Second)
	if err := client.Health(ctx); err != nil {
		log.Printf("⚠️ 分析服务健康检查失败: %v（继续启动，首次提交时重试）", err)
	} else {
		log.Printf("✅ 分析服务健康检查通过: %s", cfg.MeetingAPIURL)
	}
	cancelProbe()

	sessionStore := store.NewSessionStore(cfg.SessionTimeout)
	wsManager := services.NewWebSocketManager()
	orchestrator := services.NewOrchestrator(client, wsManager, cfg.DefaultTheme)

	// 过期会话清理循环
	cleanupCtx, cancel := context.WithCancel(context.Background())
	sessionStore.StartCleanupLoop(cleanupCtx, cfg.CleanupInterval)

	return &serverComponents{
		config:       cfg,
		client:       client,
		sessionStore: sessionStore,
		wsManager:    wsManager,
		orchestrator: orchestrator,
		cancel:       cancel,
	}
}

// logToolCall 记录MCP工具调用的详细日志
func logToolCall(name string, request map[string]interface{}, response interface{}, err error, duration time.Duration) {
	requestJSON, jsonErr := json.MarshalIndent(request, "", "  ")
	if jsonErr != nil {
		requestJSON = []byte(fmt.Sprintf("无法序列化请求: %v", jsonErr))
	}

	var responseJSON []byte
	if err != nil {
		responseJSON = []byte(fmt.Sprintf("错误: %v", err))
	} else {
		responseJSON, jsonErr = json.MarshalIndent(response, "", "  ")
		if jsonErr != nil {
			responseJSON = []byte(fmt.Sprintf("无法序列化响应: %v", jsonErr))
		}
	}

	divider := "====================================================="
	log.Printf("\n%s\n[工具调用: %s]\n%s", divider, name, divider)
	log.Printf("耗时: %v", duration)
	log.Printf("请求参数:\n%s", string(requestJSON))
	log.Printf("响应结果:\n%s", string(responseJSON))
	log.Printf("%s\n[工具调用结束: %s]\n%s\n", divider, name, divider)
}

// registerTools 注册全部MCP工具
func registerTools(s *server.MCPServer, components *serverComponents) {
	// 工具：会话管理
	meetingSessionTool := mcp.NewTool("meeting_session",
		mcp.WithDescription("创建或获取会议分析会话"),
		mcp.WithString("sessionId",
			mcp.Description("会话ID；为空时创建新会话"),
		),
	)
	s.AddTool(meetingSessionTool, meetingSessionHandler(components))

	// 工具：提交发言
	submitSpeechTool := mcp.NewTool("submit_speech",
		mcp.WithDescription("提交一条会议发言并执行完整分析流程（主题检测、立场分析、覆盖度分析、话题聚类）"),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("当前会话ID"),
		),
		mcp.WithString("transcript",
			mcp.Required(),
			mcp.Description("定稿后的发言文本"),
		),
	)
	s.AddTool(submitSpeechTool, submitSpeechHandler(components))

	// 工具：会话快照
	meetingSnapshotTool := mcp.NewTool("meeting_snapshot",
		mcp.WithDescription("获取会话的发言历史、检测主题、覆盖度分析和话题聚类快照"),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("当前会话ID"),
		),
	)
	s.AddTool(meetingSnapshotTool, meetingSnapshotHandler(components))
}

func meetingSessionHandler(components *serverComponents) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		startTime := time.Now()

		sessionID, _ := request.Params.Arguments["sessionId"].(string)

		var result map[string]interface{}
		if sessionID == "" {
			session := components.sessionStore.CreateSession()
			result = map[string]interface{}{
				"success":   true,
				"sessionId": session.ID,
				"created":   true,
			}
		} else {
			session := components.sessionStore.GetOrCreate(sessionID)
			result = map[string]interface{}{
				"success":   true,
				"sessionId": session.ID,
				"created":   false,
				"history":   session.Len(),
			}
		}

		logToolCall("meeting_session", request.Params.Arguments, result, nil, time.Since(startTime))
		return toolResultJSON(result)
	}
}

func submitSpeechHandler(components *serverComponents) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		startTime := time.Now()

		sessionID, ok := request.Params.Arguments["sessionId"].(string)
		if !ok || sessionID == "" {
			errMsg := "错误: sessionId必须是非空字符串"
			log.Println(errMsg)
			logToolCall("submit_speech", request.Params.Arguments, errMsg, fmt.Errorf("%s", errMsg), time.Since(startTime))
			return mcp.NewToolResultText(errMsg), nil
		}

		transcript, ok := request.Params.Arguments["transcript"].(string)
		if !ok || transcript == "" {
			errMsg := "错误: transcript必须是非空字符串"
			log.Println(errMsg)
			logToolCall("submit_speech", request.Params.Arguments, errMsg, fmt.Errorf("%s", errMsg), time.Since(startTime))
			return mcp.NewToolResultText(errMsg), nil
		}

		session := components.sessionStore.GetOrCreate(sessionID)
		entry, err := components.orchestrator.Submit(ctx, session, transcript)
		if err != nil {
			errMsg := fmt.Sprintf("发言分析失败: %v", err)
			log.Println(errMsg)
			logToolCall("submit_speech", request.Params.Arguments, errMsg, err, time.Since(startTime))
			return mcp.NewToolResultText(errMsg), nil
		}

		result := map[string]interface{}{
			"success": true,
			"entry":   entry,
			"theme":   session.Theme(),
			"gaps":    session.Gaps(),
			"topics":  session.Topics(),
		}
		logToolCall("submit_speech", request.Params.Arguments, result, nil, time.Since(startTime))
		return toolResultJSON(result)
	}
}

func meetingSnapshotHandler(components *serverComponents) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		startTime := time.Now()

		sessionID, ok := request.Params.Arguments["sessionId"].(string)
		if !ok || sessionID == "" {
			errMsg := "错误: sessionId必须是非空字符串"
			log.Println(errMsg)
			logToolCall("meeting_snapshot", request.Params.Arguments, errMsg, fmt.Errorf("%s", errMsg), time.Since(startTime))
			return mcp.NewToolResultText(errMsg), nil
		}

		session, err := components.sessionStore.Get(sessionID)
		if err != nil {
			errMsg := fmt.Sprintf("会话不存在: %s", sessionID)
			logToolCall("meeting_snapshot", request.Params.Arguments, errMsg, err, time.Since(startTime))
			return mcp.NewToolResultText(errMsg), nil
		}

		snapshot := session.Snapshot()
		logToolCall("meeting_snapshot", request.Params.Arguments, snapshot, nil, time.Since(startTime))
		return toolResultJSON(snapshot)
	}
}

// toolResultJSON 把结果序列化为JSON文本返回
func toolResultJSON(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("结果序列化失败: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
