package historymanager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yanshicheng/kube-nova-board/common/vars"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

// Store 按键读写 JSON 文档，历史与当前配置共用
type Store interface {
	// Load 读取并反序列化到 v，键不存在时返回 false
	Load(ctx context.Context, key string, v any) (bool, error)
	// Save 序列化并整体写入
	Save(ctx context.Context, key string, v any) error
}

// HistoryKey 历史数据的存储键
func HistoryKey() string {
	return vars.DashboardKeyPrefix + ":" + vars.HistoryStoreKeySuffix
}

// FileStore 本地文件存储，每个键一个 JSON 文件
type FileStore struct {
	dir string
}

// NewFileStore 创建文件存储，目录不存在时自动创建
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("存储目录不能为空")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: dir=%s, %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, strings.ReplaceAll(key, ":", "_")+".json")
}

func (s *FileStore) Load(ctx context.Context, key string, v any) (bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("读取文件失败: key=%s, %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("解析文件失败: key=%s, %w", key, err)
	}
	return true, nil
}

// Save 先写临时文件再 rename，读者不会看到写了一半的文件
func (s *FileStore) Save(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化失败: key=%s, %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("同步临时文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return fmt.Errorf("替换文件失败: key=%s, %w", key, err)
	}
	return nil
}

// RedisStore 基于 go-zero Redis 的存储，多实例共享
type RedisStore struct {
	rds *redis.Redis
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(rds *redis.Redis) *RedisStore {
	return &RedisStore{rds: rds}
}

func (s *RedisStore) Load(ctx context.Context, key string, v any) (bool, error) {
	val, err := s.rds.GetCtx(ctx, key)
	if err != nil {
		return false, fmt.Errorf("读取 Redis 失败: key=%s, %w", key, err)
	}
	if val == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(val), v); err != nil {
		return false, fmt.Errorf("解析 Redis 数据失败: key=%s, %w", key, err)
	}
	return true, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化失败: key=%s, %w", key, err)
	}
	if err := s.rds.SetCtx(ctx, key, string(data)); err != nil {
		return fmt.Errorf("写入 Redis 失败: key=%s, %w", key, err)
	}
	return nil
}
