package types

import (
	cfgtypes "github.com/yanshicheng/kube-nova-board/common/configmanager/types"
	"github.com/yanshicheng/kube-nova-board/common/historymanager"
	ptypes "github.com/yanshicheng/kube-nova-board/common/prometheusmanager/types"
	"github.com/yanshicheng/kube-nova-board/common/querymanager"
	"github.com/yanshicheng/kube-nova-board/common/queuemanager"
	qtypes "github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
)

// ==================== 指标查询 ====================

type ResolveQueryRequest struct {
	Reference string            `json:"reference" validate:"required"`
	Variables map[string]string `json:"variables,optional"`
}

type ResolveQueryBatchRequest struct {
	References []string          `json:"references" validate:"required,min=1,max=200"`
	Variables  map[string]string `json:"variables,optional"`
}

type ResolveQueryBatchResponse struct {
	Items []querymanager.ResolvedQuery `json:"items"`
	Total int                          `json:"total"`
}

type ValidateVariablesRequest struct {
	Reference string            `json:"reference,optional" validate:"required_without=Template"`
	Template  string            `json:"template,optional"`
	Variables map[string]string `json:"variables,optional"`
}

type ValidateVariablesResponse struct {
	Valid     bool     `json:"valid"`
	Variables []string `json:"variables"`
	Missing   []string `json:"missing"`
}

type ExecuteQueryRequest struct {
	Reference string            `json:"reference" validate:"required"`
	Variables map[string]string `json:"variables,optional"`
	Instance  string            `json:"instance,optional"`                      // Prometheus 实例，为空使用默认实例
	Time      int64             `json:"time,optional" validate:"gte=0"`         // 即时查询时间（秒），为 0 表示当前
	Start     int64             `json:"start,optional" validate:"gte=0"`        // 范围查询开始时间（秒）
	End       int64             `json:"end,optional" validate:"gte=0"`          // 范围查询结束时间（秒）
	Step      string            `json:"step,optional" validate:"omitempty,max=16"` // 范围查询步长，为空时自动计算
}

type ExecuteQueryResponse struct {
	Instance string                      `json:"instance"`
	Query    string                      `json:"query"`
	Instant  []ptypes.InstantQueryResult `json:"instant,omitempty"`
	Range    []ptypes.RangeQueryResult   `json:"range,omitempty"`
}

type QueryLibraryRequest struct {
	Namespace string `form:"namespace,optional"`
}

type QueryLibraryResponse struct {
	Queries    querymanager.Catalog `json:"queries"`
	Namespaces []string             `json:"namespaces"`
	Total      int                  `json:"total"`
}

type SaveQueryRequest struct {
	Namespace string `json:"namespace" validate:"required,max=64"`
	Name      string `json:"name" validate:"required,max=128"`
	Template  string `json:"template" validate:"required"`
}

type DeleteQueryRequest struct {
	Namespace string `form:"namespace" validate:"required"`
	Name      string `form:"name" validate:"required"`
}

type MetricsInstancesResponse struct {
	Items []string `json:"items"`
}

// ==================== 队列查询 ====================

type ExecuteQueueRefRequest struct {
	Reference string `json:"reference" validate:"required"`
}

type QueueProvidersResponse struct {
	Items  []qtypes.ProviderInfo         `json:"items"`
	Total  int                           `json:"total"`
	Health []queuemanager.ProviderHealth `json:"health,omitempty"` // 定时探测结果，未启用时为空
}

type QueueLibraryResponse struct {
	Items querymanager.QueueQueryTable `json:"items"`
	Total int                          `json:"total"`
}

type SaveQueueQueryRequest struct {
	Namespace string `json:"namespace" validate:"required,max=64"`
	Name      string `json:"name" validate:"required,max=128"`
	Provider  string `json:"provider" validate:"required"`
	Queue     string `json:"queue,optional"`
	Status    string `json:"status,optional" validate:"omitempty,oneof=waiting active completed failed delayed"`
	Limit     int    `json:"limit,optional" default:"20" validate:"gte=1,lte=1000"`
}

type DeleteQueueQueryRequest struct {
	Namespace string `form:"namespace" validate:"required"`
	Name      string `form:"name" validate:"required"`
}

// ==================== 配置历史 ====================

type HistoryResponse struct {
	Snapshots    []historymanager.Snapshot `json:"snapshots"`
	CurrentIndex int                       `json:"currentIndex"`
	CanUndo      bool                      `json:"canUndo"`
	CanRedo      bool                      `json:"canRedo"`
	MaxSnapshots int                       `json:"maxSnapshots"`
}

type CreateSnapshotRequest struct {
	Label string `json:"label,optional" validate:"max=128"`
}

type SnapshotIdRequest struct {
	Id string `json:"id" validate:"required"`
}

type HistoryResultResponse struct {
	Success  bool                     `json:"success"`
	Snapshot *historymanager.Snapshot `json:"snapshot,omitempty"`
}

type HistoryWSConnectRequest struct {
	Replay bool `form:"replay,optional"` // 连接后先推送一次完整历史
}

// ==================== 仪表盘配置 ====================

type LayoutItem struct {
	X int `json:"x,optional" validate:"gte=0"`
	Y int `json:"y,optional" validate:"gte=0"`
	W int `json:"w,optional" default:"4" validate:"gte=1"`
	H int `json:"h,optional" default:"3" validate:"gte=1"`
}

type WidgetItem struct {
	Id            string            `json:"id,optional"`
	Title         string            `json:"title" validate:"required,max=128"`
	Type          string            `json:"type" validate:"required,max=32"`
	QueryRef      string            `json:"queryRef,optional"`
	QueueQueryRef string            `json:"queueQueryRef,optional"`
	Variables     map[string]string `json:"variables,optional"`
	Layout        LayoutItem        `json:"layout,optional"`
}

type AddPageRequest struct {
	Id    string `json:"id,optional"`
	Title string `json:"title" validate:"required,max=128"`
}

type RemovePageRequest struct {
	PageId string `json:"pageId" validate:"required"`
}

type UpsertWidgetRequest struct {
	PageId string     `json:"pageId" validate:"required"`
	Widget WidgetItem `json:"widget"`
}

type MoveWidgetRequest struct {
	PageId       string     `json:"pageId" validate:"required"`
	WidgetId     string     `json:"widgetId" validate:"required"`
	TargetPageId string     `json:"targetPageId,optional"`
	Layout       LayoutItem `json:"layout"`
}

type RemoveWidgetRequest struct {
	PageId   string `json:"pageId" validate:"required"`
	WidgetId string `json:"widgetId" validate:"required"`
}

// ImportConfigRequest 导入完整配置，请求体按 JSON 直接解码
type ImportConfigRequest struct {
	Label  string                   `json:"label"`
	Config cfgtypes.DashboardConfig `json:"config"`
}

type DashboardConfigResponse = cfgtypes.DashboardConfig
