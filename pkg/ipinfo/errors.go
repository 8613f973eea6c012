package ipinfo

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEndpointUnreachable 网络错误、非 2xx 状态码或响应体读取失败
	ErrEndpointUnreachable = errors.New("endpoint unreachable")
	// ErrMalformedResponse 响应不是 JSON 对象, 或归一化后没有 IP 地址
	ErrMalformedResponse = errors.New("malformed response")
	// ErrAllEndpointsExhausted 本轮所有 API 均失败
	ErrAllEndpointsExhausted = errors.New("all endpoints exhausted")
)

// EndpointError 单个 API 的失败原因, Kind 为上面的哨兵错误之一
type EndpointError struct {
	Endpoint string
	Kind     error
	Err      error
}

func (e *EndpointError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Endpoint, e.Kind, e.Err)
}

func (e *EndpointError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ExhaustedError 汇总一轮解析中每个 API 的失败
type ExhaustedError struct {
	Attempts []*EndpointError
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrAllEndpointsExhausted.Error() + ": no endpoints configured"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Error())
	}
	return ErrAllEndpointsExhausted.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllEndpointsExhausted
}

func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a)
	}
	return errs
}

func unreachable(endpoint string, err error) *EndpointError {
	return &EndpointError{Endpoint: endpoint, Kind: ErrEndpointUnreachable, Err: err}
}

func malformed(endpoint string, err error) *EndpointError {
	return &EndpointError{Endpoint: endpoint, Kind: ErrMalformedResponse, Err: err}
}

// Outcome 失败原因的简短标签, 用于日志和指标
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrEndpointUnreachable):
		return "unreachable"
	default:
		return "error"
	}
}
