package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// 分析服务的文本输出形如：
//
//	说明文字...
//	```json
//	{ ... }
//	```
//	补充说明...
//
// 清洗分两步：先剥掉所有围栏标记（```json / ``` 可出现多次），
// 再收窄到第一个'{'和最后一个'}'之间，丢弃前后夹带的自然语言
var codeFencePattern = regexp.MustCompile("```[a-zA-Z]*[ \t]*\n?")

// SanitizeResponse 从半结构化文本中提取JSON对象文本
// 找不到成对的'{'/'}'时返回ErrMalformedResponse
func SanitizeResponse(raw string) (string, error) {
	clean := codeFencePattern.ReplaceAllString(raw, "")

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("%w: 未找到JSON对象边界", ErrMalformedResponse)
	}

	return clean[start : end+1], nil
}

// SanitizeInto 提取JSON对象文本并解析到目标结构
// 本层不做重试，解析失败作为硬失败向调用方传播
func SanitizeInto(raw string, v interface{}) error {
	span, err := SanitizeResponse(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
