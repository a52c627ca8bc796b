//go:build !http

package main

import (
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"
)

func main() {
	log.Println("启动 Meeting Mind STDIO MCP 服务器...")

	// STDIO模式日志写到标准错误，标准输出留给MCP协议
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	components := initializeServices()
	defer components.cancel()

	s := server.NewMCPServer(
		components.config.ServiceName,
		"1.0.0",
	)

	registerTools(s, components)

	log.Println("✅ MCP工具注册完成，开始服务")
	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("MCP服务器异常退出: %v", err)
	}
}
