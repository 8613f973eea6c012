package ipinfo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/metacubex/mihomo/common/convert"
)

// 单个响应体的读取上限
const maxBodySize = 1 << 20

// apiCommonHeaders 请求头, 禁止缓存并模拟正常访问
func apiCommonHeaders() map[string]string {
	return map[string]string{
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.9",
		"User-Agent":      convert.RandUserAgent(),
		"Cache-Control":   "no-cache",
		"Pragma":          "no-cache",
	}
}

// Resolve 按顺序尝试每个 API, 返回第一个包含 IP 地址的记录;
// 单个 API 失败只会跳到下一个, 全部失败时返回 *ExhaustedError
func (c *Client) Resolve(ctx context.Context) (Record, error) {
	exhausted := &ExhaustedError{}
	for _, endpoint := range c.endpoints {
		if err := ctx.Err(); err != nil {
			return Record{}, err
		}

		start := time.Now()
		rec, err := c.FetchRecord(ctx, endpoint)
		c.observe(endpoint, err, time.Since(start))
		if err != nil {
			var epErr *EndpointError
			if !errors.As(err, &epErr) {
				epErr = unreachable(endpoint, err)
			}
			slog.Debug(fmt.Sprintf("查询 API 失败: %s, 原因: %s", endpoint, Outcome(err)), "error", epErr.Err)
			exhausted.Attempts = append(exhausted.Attempts, epErr)
			continue
		}

		c.enrich(&rec)
		slog.Debug(fmt.Sprintf("%s : IP=%s country=%s", endpoint, rec.Address, rec.CountryCode))
		return rec, nil
	}
	return Record{}, exhausted
}

// FetchRecord 请求单个 API 并归一化, 归一化后没有 IP 地址视为失败
func (c *Client) FetchRecord(ctx context.Context, endpoint string) (Record, error) {
	body, err := c.fetch(ctx, endpoint)
	if err != nil {
		return Record{}, err
	}

	payload, err := ParsePayload(body)
	if err != nil {
		return Record{}, malformed(endpoint, err)
	}

	rec := Normalize(payload)
	if !rec.Valid() {
		return Record{}, malformed(endpoint, errors.New("no ip in payload"))
	}
	rec.Source = endpoint
	return rec, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, unreachable(endpoint, err)
	}
	for key, value := range apiCommonHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unreachable(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, unreachable(endpoint, fmt.Errorf("status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, unreachable(endpoint, err)
	}
	return body, nil
}

func (c *Client) observe(endpoint string, err error, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveAttempt(endpoint, err, elapsed.Seconds())
}

// enrich 补全字段, 不会修改 IP 地址, 也不会导致失败
func (c *Client) enrich(rec *Record) {
	rec.IsCDN = c.CheckCDN(rec.Address)
	if c.mmdb == nil {
		return
	}
	if err := c.fillFromMaxMind(rec); err != nil {
		slog.Debug(fmt.Sprintf("MaxMind 补全失败: %s, err: %v", rec.Address, err))
	}
}
