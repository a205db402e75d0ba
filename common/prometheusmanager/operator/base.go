package operator

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

type BaseOperator struct {
	log      logx.Logger
	endpoint string
	username string
	password string
	client   *http.Client
}

func NewBaseOperator(endpoint, username, password string, insecure bool, timeout int) *BaseOperator {
	if timeout <= 0 {
		timeout = 30
	}

	transport := &http.Transport{
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: insecure},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &BaseOperator{
		log:      logx.WithContext(context.Background()),
		endpoint: strings.TrimRight(endpoint, "/"),
		username: username,
		password: password,
		client: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(timeout) * time.Second,
		},
	}
}

// doRequest 发送 GET 请求并解析 JSON 响应
func (b *BaseOperator) doRequest(ctx context.Context, path string, params map[string]string, result any) error {
	requestURL := b.endpoint + path + b.buildQuery(params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		b.log.Errorf("创建请求失败: %v", err)
		return fmt.Errorf("创建请求失败: %w", err)
	}

	// 设置认证
	if b.username != "" && b.password != "" {
		req.SetBasicAuth(b.username, b.password)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		b.log.Errorf("请求失败: %v", err)
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		b.log.Errorf("读取响应失败: %v", err)
		return fmt.Errorf("读取响应失败: %w", err)
	}

	// Prometheus 对 PromQL 错误返回 400/422，响应体中仍有 error 字段
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			b.log.Errorf("Prometheus API 错误: status=%d, error=%s", resp.StatusCode, apiErr.Error)
			return fmt.Errorf("Prometheus API 错误: status=%d, %s", resp.StatusCode, apiErr.Error)
		}
		b.log.Errorf("Prometheus API 错误: status=%d, body=%s", resp.StatusCode, string(respBody))
		return fmt.Errorf("Prometheus API 错误: status=%d", resp.StatusCode)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			b.log.Errorf("解析响应失败: %v, body=%s", err, string(respBody))
			return fmt.Errorf("解析响应失败: %w", err)
		}
	}

	return nil
}

// buildQuery 构建查询字符串
func (b *BaseOperator) buildQuery(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	query := url.Values{}
	for k, v := range params {
		if v != "" {
			query.Add(k, v)
		}
	}
	return "?" + query.Encode()
}

func (b *BaseOperator) formatTimestamp(t time.Time) string {
	// 返回带3位小数的Unix时间戳
	return fmt.Sprintf("%.3f", float64(t.UnixNano())/1e9)
}

// calculateStep 自动计算合理的 step
// 目标：返回 200-500 个数据点
func (b *BaseOperator) calculateStep(start, end time.Time) string {
	duration := end.Sub(start)

	switch {
	case duration < 5*time.Minute:
		return "1s"
	case duration < 10*time.Minute:
		return "2s"
	case duration < 30*time.Minute:
		return "5s"
	case duration < 1*time.Hour:
		return "15s"
	case duration < 3*time.Hour:
		return "30s"
	case duration < 6*time.Hour:
		return "1m"
	case duration < 12*time.Hour:
		return "2m"
	case duration < 24*time.Hour:
		return "5m"
	case duration < 3*24*time.Hour:
		return "10m"
	case duration < 7*24*time.Hour:
		return "30m"
	case duration < 30*24*time.Hour:
		return "2h"
	default:
		return "6h"
	}
}
