// Package logger 基于 log/slog 的全局日志
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel debug / info / warn / error, 大小写不敏感
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// New 创建 logger; format 为 json 时输出 JSON, 否则输出文本
func New(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return slog.New(h), nil
}

// Setup 创建输出到 stderr 的 logger 并设为默认
func Setup(level, format string) (*slog.Logger, error) {
	l, err := New(level, format, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return l, nil
}
