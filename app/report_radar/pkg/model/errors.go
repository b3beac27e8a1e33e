package model

import "errors"

var (
	// ErrNotFound 报告不存在或不属于当前用户
	ErrNotFound = errors.New("报告不存在")
	// ErrInvalidArgument 请求参数不合法
	ErrInvalidArgument = errors.New("参数不合法")
)
