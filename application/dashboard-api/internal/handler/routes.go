package handler

import (
	"net/http"

	dashboard "github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/handler/dashboard"
	history "github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/handler/history"
	query "github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/handler/query"
	queue "github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/handler/queue"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"

	"github.com/zeromicro/go-zero/rest"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				// 解析查询引用
				Method:  http.MethodPost,
				Path:    "/resolve",
				Handler: query.ResolveQueryHandler(serverCtx),
			},
			{
				// 批量解析查询引用
				Method:  http.MethodPost,
				Path:    "/resolve-batch",
				Handler: query.ResolveQueryBatchHandler(serverCtx),
			},
			{
				// 校验变量
				Method:  http.MethodPost,
				Path:    "/validate",
				Handler: query.ValidateVariablesHandler(serverCtx),
			},
			{
				// 执行指标查询
				Method:  http.MethodPost,
				Path:    "/execute",
				Handler: query.ExecuteQueryHandler(serverCtx),
			},
			{
				// Prometheus 实例列表
				Method:  http.MethodGet,
				Path:    "/instances",
				Handler: query.ListMetricsInstancesHandler(serverCtx),
			},
			{
				// 合并后的查询库
				Method:  http.MethodGet,
				Path:    "/library",
				Handler: query.GetQueryLibraryHandler(serverCtx),
			},
			{
				// 保存用户查询
				Method:  http.MethodPost,
				Path:    "/library",
				Handler: query.SaveQueryHandler(serverCtx),
			},
			{
				// 删除用户查询
				Method:  http.MethodDelete,
				Path:    "/library",
				Handler: query.DeleteQueryHandler(serverCtx),
			},
		},
		rest.WithPrefix("/api/v1/query"),
	)

	server.AddRoutes(
		[]rest.Route{
			{
				// 执行内联队列查询
				Method:  http.MethodPost,
				Path:    "/execute",
				Handler: queue.ExecuteQueueHandler(serverCtx),
			},
			{
				// 按引用执行队列查询
				Method:  http.MethodPost,
				Path:    "/execute-ref",
				Handler: queue.ExecuteQueueRefHandler(serverCtx),
			},
			{
				// 已注册的队列提供者
				Method:  http.MethodGet,
				Path:    "/providers",
				Handler: queue.ListQueueProvidersHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/library",
				Handler: queue.GetQueueLibraryHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/library",
				Handler: queue.SaveQueueQueryHandler(serverCtx),
			},
			{
				Method:  http.MethodDelete,
				Path:    "/library",
				Handler: queue.DeleteQueueQueryHandler(serverCtx),
			},
		},
		rest.WithPrefix("/api/v1/queue"),
	)

	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/",
				Handler: history.GetHistoryHandler(serverCtx),
			},
			{
				// 手动快照
				Method:  http.MethodPost,
				Path:    "/snapshot",
				Handler: history.CreateSnapshotHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/undo",
				Handler: history.UndoHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/redo",
				Handler: history.RedoHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/restore",
				Handler: history.RestoreSnapshotHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/delete",
				Handler: history.DeleteSnapshotHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/clear",
				Handler: history.ClearHistoryHandler(serverCtx),
			},
			{
				// 历史变更推送
				Method:  http.MethodGet,
				Path:    "/ws",
				Handler: history.HistoryWSConnectHandler(serverCtx),
			},
		},
		rest.WithPrefix("/api/v1/history"),
	)

	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/",
				Handler: dashboard.GetConfigHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/page",
				Handler: dashboard.AddPageHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/page/remove",
				Handler: dashboard.RemovePageHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/widget",
				Handler: dashboard.UpsertWidgetHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/widget/move",
				Handler: dashboard.MoveWidgetHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/widget/remove",
				Handler: dashboard.RemoveWidgetHandler(serverCtx),
			},
			{
				// 导入完整配置
				Method:  http.MethodPost,
				Path:    "/import",
				Handler: dashboard.ImportConfigHandler(serverCtx),
			},
		},
		rest.WithPrefix("/api/v1/config"),
	)
}
