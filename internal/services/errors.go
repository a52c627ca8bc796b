package services

import "errors"

// 错误分类
// 主路径（发言分析）错误对提交方可见且不落任何部分状态；
// 主题/覆盖度/话题路径错误只记录日志并退化为"无结果"
var (
	// ErrEmptyInput 发言文本为空或仅空白字符，用户可直接纠正
	ErrEmptyInput = errors.New("发言内容为空")

	// ErrMalformedResponse 无法从分析服务返回文本中提取出合法JSON
	ErrMalformedResponse = errors.New("分析服务返回内容无法解析")

	// ErrAnalysisFailed 发言分析失败（传输失败、服务端失败或解析失败），本次提交不落历史
	ErrAnalysisFailed = errors.New("发言分析失败")

	// ErrBusy 上一条发言的编排步骤尚未结束，拒绝并发提交
	ErrBusy = errors.New("上一条发言仍在分析中，请稍后重试")
)
