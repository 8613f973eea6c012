package data

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/oschwald/maxminddb-golang/v2"
)

// OpenMaxMindDB 打开 MaxMind 数据库; .zst 结尾的文件先解压到缓存目录,
// 缓存比源文件新时直接复用
func OpenMaxMindDB(path string) (*maxminddb.Reader, error) {
	if path == "" {
		return nil, fmt.Errorf("mmdb path is empty")
	}
	if !strings.HasSuffix(path, ".zst") {
		db, err := maxminddb.Open(path)
		if err != nil {
			return nil, fmt.Errorf("maxmind数据库打开失败: %w", err)
		}
		return db, nil
	}

	src, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("maxmind数据库不存在: %w", err)
	}

	mmdbPath := filepath.Join(ResolveDataPath(), strings.TrimSuffix(filepath.Base(path), ".zst"))
	if fi, err := os.Stat(mmdbPath); err != nil || fi.ModTime().Before(src.ModTime()) {
		if err := decompressZstd(path, mmdbPath); err != nil {
			return nil, err
		}
	}

	db, err := maxminddb.Open(mmdbPath)
	if err != nil {
		return nil, fmt.Errorf("maxmind数据库打开失败: %w", err)
	}
	return db, nil
}

// decompressZstd 先写临时文件再改名, 避免并发打开到一半的文件
func decompressZstd(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("maxmind数据库打开失败: %w", err)
	}
	defer in.Close()

	zstdDecoder, err := zstd.NewReader(in)
	if err != nil {
		return fmt.Errorf("zstd解码器创建失败: %w", err)
	}
	defer zstdDecoder.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("创建数据库目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("maxmind数据库文件创建失败: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, zstdDecoder); err != nil {
		tmp.Close()
		return fmt.Errorf("maxmind数据库文件解压失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("maxmind数据库文件写入失败: %w", err)
	}
	return os.Rename(tmp.Name(), dst)
}

// ResolveDataPath 解压缓存目录: 可执行文件旁的 assets/maxmindDB, 不可写时退回临时目录
func ResolveDataPath() string {
	// 在测试环境中，使用临时目录
	if os.Getenv("TESTING") == "1" {
		return filepath.Join(os.TempDir(), "aether", "maxmindDB")
	}

	// 优先尝试获取可执行文件路径
	if exePath, err := os.Executable(); err == nil {
		assetPath := filepath.Join(filepath.Dir(exePath), "assets", "maxmindDB")
		if err := os.MkdirAll(assetPath, 0755); err == nil {
			return assetPath
		}
	}

	// 如果可执行文件路径不可用，尝试当前工作目录
	if cwd, err := os.Getwd(); err == nil {
		assetPath := filepath.Join(cwd, "assets", "maxmindDB")
		if err := os.MkdirAll(assetPath, 0755); err == nil {
			return assetPath
		}
	}

	// 最后的回退方案：使用临时目录
	return filepath.Join(os.TempDir(), "aether", "maxmindDB")
}
