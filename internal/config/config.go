package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	// 服务配置
	ServiceName string
	Host        string // 服务监听地址
	Port        int
	Debug       bool
	GinMode     string // Gin运行模式

	// 分析服务配置
	MeetingAPIURL     string        // Meeting Mind 分析服务地址
	MeetingAPITimeout time.Duration // 单次分析调用超时
	DefaultTheme      string        // 主题未检测时的兜底主题ID

	// ======== 时间阈值配置 ========
	SessionTimeout  time.Duration // 会话超时时间，默认30分钟
	CleanupInterval time.Duration // 清理检查间隔，默认10分钟
}

// Load 从环境变量加载配置
func Load() *Config {
	// 尝试加载.env文件，优先尝试config目录，然后兼容根目录
	envPaths := []string{
		"config/.env",
		".env",
	}

	loaded := false
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				log.Printf("成功加载.env文件: %s", path)
				loaded = true
				break
			}
		}
	}

	if !loaded {
		log.Printf("警告: 未找到.env文件，使用系统环境变量")
	}

	return &Config{
		// 服务配置默认值
		ServiceName: getEnv("SERVICE_NAME", "meeting-mind"),
		Host:        getEnv("HOST", "0.0.0.0"),
		Port:        getEnvAsInt("PORT", 8090),
		Debug:       getEnvAsBool("DEBUG", false),
		GinMode:     getEnv("GIN_MODE", "release"),

		// 分析服务配置
		MeetingAPIURL:     getEnv("MEETING_API_URL", "http://localhost:8080"),
		MeetingAPITimeout: getEnvAsDuration("MEETING_API_TIMEOUT", 60*time.Second),
		DefaultTheme:      getEnv("DEFAULT_THEME", "general"),

		// 时间阈值配置
		SessionTimeout:  getEnvAsDuration("SESSION_TIMEOUT", 30*time.Minute),
		CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", 10*time.Minute),
	}
}

// String 返回配置的字符串表示
func (c *Config) String() string {
	return fmt.Sprintf(
		"服务名称: %s, 监听: %s:%d, 调试模式: %v, 分析服务: %s, 调用超时: %v, "+
			"默认主题: %s, 会话超时: %v, 清理间隔: %v",
		c.ServiceName, c.Host, c.Port, c.Debug,
		c.MeetingAPIURL, c.MeetingAPITimeout,
		c.DefaultTheme, c.SessionTimeout, c.CleanupInterval,
	)
}

// 从环境变量获取字符串值
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// 从环境变量获取整数值
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return defaultValue
}

// 从环境变量获取布尔值
func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return defaultValue
}

// 从环境变量获取时间值
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return defaultValue
}
