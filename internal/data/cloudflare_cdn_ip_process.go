package data

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
)

var (
	cfCdnIPRanges map[string][]*net.IPNet
	loadOnce      sync.Once
	loadError     error
)

// parseCIDRs 逐行解析 CIDR, 忽略空行和注释; 没有前缀长度的单个 IP 按 /32 或 /128 处理
func parseCIDRs(r io.Reader, ranges map[string][]*net.IPNet) error {
	scanner := bufio.NewScanner(r)
	lineCount := 0

	for scanner.Scan() {
		lineCount++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		version := "ipv4"
		if strings.Contains(line, ":") {
			version = "ipv6"
		}
		if !strings.Contains(line, "/") {
			if version == "ipv4" {
				line = line + "/32"
			} else {
				line = line + "/128"
			}
		}

		_, ipNet, err := net.ParseCIDR(line)
		if err != nil {
			slog.Warn("Failed to parse CIDR",
				slog.String("cidr", line),
				slog.Int("line", lineCount),
				slog.Any("error", err))
			continue
		}
		ranges[version] = append(ranges[version], ipNet)
	}
	return scanner.Err()
}

// readCdnIPsRanges 读取嵌入的 Cloudflare CDN IP 范围
func readCdnIPsRanges() {
	ranges := make(map[string][]*net.IPNet)
	for _, content := range []string{embeddedIPv4, embeddedIPv6} {
		if err := parseCIDRs(strings.NewReader(content), ranges); err != nil {
			slog.Debug("Error reading IP ranges", slog.Any("error", err))
			loadError = err
			return
		}
	}

	cfCdnIPRanges = ranges
	slog.Debug("Successfully loaded Cloudflare CDN IP ranges",
		slog.Int("ipv4", len(ranges["ipv4"])),
		slog.Int("ipv6", len(ranges["ipv6"])))
}

// GetCfCdnIPRanges 一次性加载 Cloudflare CDN IP 范围
func GetCfCdnIPRanges() map[string][]*net.IPNet {
	loadOnce.Do(readCdnIPsRanges)

	if loadError != nil {
		slog.Debug("Error loading CDN IP ranges", slog.Any("error", loadError))
		return nil
	}

	if cfCdnIPRanges == nil || (len(cfCdnIPRanges["ipv4"]) == 0 && len(cfCdnIPRanges["ipv6"]) == 0) {
		slog.Debug("Warning: No CDN IP ranges loaded")
		return nil
	}

	return cfCdnIPRanges
}

// LoadCloudflareCIDRs 加载 CDN CIDR 范围, 路径为空时使用嵌入的数据
func LoadCloudflareCIDRs(path string) (map[string][]*net.IPNet, error) {
	if path == "" {
		ranges := GetCfCdnIPRanges()
		if ranges == nil {
			return nil, fmt.Errorf("failed to load embedded Cloudflare CIDRs")
		}
		return ranges, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CIDR file: %w", err)
	}
	defer file.Close()

	ranges := make(map[string][]*net.IPNet)
	if err := parseCIDRs(file, ranges); err != nil {
		return nil, fmt.Errorf("error reading CIDR file: %w", err)
	}
	if len(ranges["ipv4"]) == 0 && len(ranges["ipv6"]) == 0 {
		return nil, fmt.Errorf("no CIDR ranges in %s", path)
	}
	return ranges, nil
}
