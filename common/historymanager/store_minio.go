package historymanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConf 对象存储配置
type MinioConf struct {
	Endpoint  string `json:",optional"`
	AccessKey string `json:",optional"`
	SecretKey string `json:",optional"`
	Bucket    string `json:",default=kube-nova-board"`
	Prefix    string `json:",default=dashboard"`
	Region    string `json:",optional"`
	UseSSL    bool   `json:",optional"`
}

// MinioStore 每个键一个 JSON 对象
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioStore 基于已有客户端创建存储
func NewMinioStore(client *minio.Client, bucket, prefix string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// NewMinioStoreFromConf 按配置创建客户端，桶不存在时创建
func NewMinioStoreFromConf(ctx context.Context, c MinioConf) (*MinioStore, error) {
	client, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure: c.UseSSL,
		Region: c.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("创建对象存储客户端失败: endpoint=%s, %w", c.Endpoint, err)
	}
	s := NewMinioStore(client, c.Bucket, c.Prefix)
	if err := s.EnsureBucket(ctx, c.Region); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureBucket 桶不存在时创建
func (s *MinioStore) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: bucket=%s, %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("创建存储桶失败: bucket=%s, %w", s.bucket, err)
	}
	return nil
}

func (s *MinioStore) objectName(key string) string {
	name := strings.ReplaceAll(key, ":", "/") + ".json"
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *MinioStore) Load(ctx context.Context, key string, v any) (bool, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return false, fmt.Errorf("读取对象失败: key=%s, %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("读取对象失败: key=%s, %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("解析对象失败: key=%s, %w", key, err)
	}
	return true, nil
}

func (s *MinioStore) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化失败: key=%s, %w", key, err)
	}
	_, err = s.client.PutObject(ctx, s.bucket, s.objectName(key), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("写入对象失败: key=%s, %w", key, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
