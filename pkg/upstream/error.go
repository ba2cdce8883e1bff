// Package upstream 定义了上游服务调用失败的统一错误类型。
// Embedding、向量检索与聊天补全三类调用的失败都收敛到这里，
// 便于对每条失败路径独立测试，同时对外只暴露一个通用错误响应。
package upstream

import (
	"fmt"
	"net/http"
)

// Kind 表示上游错误的类别。
type Kind string

const (
	KindNetwork   Kind = "network"
	KindAuth      Kind = "auth"
	KindQuota     Kind = "quota"
	KindMalformed Kind = "malformed"
)

// Error 包装一次上游调用的失败，记录来源服务与错误类别。
type Error struct {
	Service string
	Kind    Kind
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Service, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap 将底层错误包装为 upstream.Error。
func Wrap(service string, kind Kind, err error) error {
	return &Error{Service: service, Kind: kind, Err: err}
}

// Wrapf 以格式化消息包装为 upstream.Error。
func Wrapf(service string, kind Kind, format string, args ...interface{}) error {
	return &Error{Service: service, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// ClassifyStatus 根据 HTTP 状态码推断错误类别。
func ClassifyStatus(statusCode int) Kind {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return KindAuth
	case statusCode == http.StatusTooManyRequests:
		return KindQuota
	case statusCode >= http.StatusInternalServerError:
		return KindNetwork
	default:
		return KindMalformed
	}
}
