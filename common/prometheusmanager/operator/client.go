package operator

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/yanshicheng/kube-nova-board/common/prometheusmanager/types"
)

type PrometheusClientImpl struct {
	*BaseOperator
	name     string
	endpoint string
}

func NewPrometheusClient(config *types.PrometheusConfig) (types.PrometheusClient, error) {
	if config.Name == "" || config.Endpoint == "" {
		return nil, fmt.Errorf("配置无效: name、endpoint 不能为空")
	}

	return &PrometheusClientImpl{
		BaseOperator: NewBaseOperator(config.Endpoint, config.Username, config.Password, config.Insecure, config.Timeout),
		name:         config.Name,
		endpoint:     config.Endpoint,
	}, nil
}

func (p *PrometheusClientImpl) GetName() string {
	return p.name
}

func (p *PrometheusClientImpl) GetEndpoint() string {
	return p.endpoint
}

// Query 即时查询
func (p *PrometheusClientImpl) Query(ctx context.Context, query string, timestamp *time.Time) ([]types.InstantQueryResult, error) {
	params := map[string]string{
		"query": query,
	}
	if timestamp != nil {
		params["time"] = p.formatTimestamp(*timestamp)
	}

	var response struct {
		Status string `json:"status"`
		Data   struct {
			ResultType string `json:"resultType"`
			Result     []struct {
				Metric map[string]string `json:"metric"`
				Value  []any             `json:"value"` // [timestamp, value]
			} `json:"result"`
		} `json:"data"`
		Error string `json:"error,omitempty"`
	}

	if err := p.doRequest(ctx, "/api/v1/query", params, &response); err != nil {
		return nil, err
	}

	if response.Status != "success" {
		return nil, fmt.Errorf("查询失败: %s", response.Error)
	}

	results := make([]types.InstantQueryResult, 0, len(response.Data.Result))
	for _, item := range response.Data.Result {
		ts, value, ok := p.parseSample(item.Value)
		if !ok {
			continue
		}
		results = append(results, types.InstantQueryResult{
			Metric: item.Metric,
			Value:  value,
			Time:   ts,
		})
	}

	return results, nil
}

// QueryRange 范围查询，step 为空时按时间跨度自动计算
func (p *PrometheusClientImpl) QueryRange(ctx context.Context, query string, timeRange types.TimeRange) ([]types.RangeQueryResult, error) {
	step := timeRange.Step
	if step == "" {
		step = p.calculateStep(timeRange.Start, timeRange.End)
	}

	params := map[string]string{
		"query": query,
		"start": p.formatTimestamp(timeRange.Start),
		"end":   p.formatTimestamp(timeRange.End),
		"step":  step,
	}

	var response struct {
		Status string `json:"status"`
		Data   struct {
			ResultType string `json:"resultType"`
			Result     []struct {
				Metric map[string]string `json:"metric"`
				Values [][]any           `json:"values"` // [[timestamp, value], ...]
			} `json:"result"`
		} `json:"data"`
		Error string `json:"error,omitempty"`
	}

	if err := p.doRequest(ctx, "/api/v1/query_range", params, &response); err != nil {
		return nil, err
	}

	if response.Status != "success" {
		return nil, fmt.Errorf("查询失败: %s", response.Error)
	}

	results := make([]types.RangeQueryResult, 0, len(response.Data.Result))
	for _, item := range response.Data.Result {
		values := make([]types.MetricValue, 0, len(item.Values))
		for _, v := range item.Values {
			ts, value, ok := p.parseSample(v)
			if !ok {
				continue
			}
			values = append(values, types.MetricValue{Timestamp: ts, Value: value})
		}

		results = append(results, types.RangeQueryResult{
			Metric: item.Metric,
			Values: values,
		})
	}

	return results, nil
}

// parseSample 解析 [timestamp, "value"]
func (p *PrometheusClientImpl) parseSample(sample []any) (time.Time, float64, bool) {
	if len(sample) != 2 {
		return time.Time{}, 0, false
	}
	tsFloat, ok := sample[0].(float64)
	if !ok {
		return time.Time{}, 0, false
	}
	valueStr, ok := sample[1].(string)
	if !ok {
		return time.Time{}, 0, false
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		p.log.Errorf("解析值失败: %v", err)
		return time.Time{}, 0, false
	}
	return time.UnixMilli(int64(tsFloat * 1000)), value, true
}

// Ping 健康检查
func (p *PrometheusClientImpl) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseOperator.endpoint+"/-/healthy", nil)
	if err != nil {
		p.log.Errorf("创建 Ping 请求失败: %v", err)
		return fmt.Errorf("创建 Ping 请求失败: %w", err)
	}

	if p.username != "" && p.password != "" {
		req.SetBasicAuth(p.username, p.password)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Errorf("Ping 请求失败: %v", err)
		return fmt.Errorf("ping 请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.log.Errorf("Ping 失败: status=%d", resp.StatusCode)
		return fmt.Errorf("ping 失败: status=%d", resp.StatusCode)
	}
	return nil
}

// Close 关闭客户端
func (p *PrometheusClientImpl) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
