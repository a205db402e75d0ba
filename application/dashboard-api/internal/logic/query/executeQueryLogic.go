package query

import (
	"context"
	"time"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/yanshicheng/kube-nova-board/common/handler/errorx"
	ptypes "github.com/yanshicheng/kube-nova-board/common/prometheusmanager/types"
	"github.com/yanshicheng/kube-nova-board/common/querymanager"
	"github.com/zeromicro/go-zero/core/logx"
)

type ExecuteQueryLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 解析查询引用后在 Prometheus 上执行
func NewExecuteQueryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ExecuteQueryLogic {
	return &ExecuteQueryLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ExecuteQueryLogic) ExecuteQuery(req *types.ExecuteQueryRequest) (resp *types.ExecuteQueryResponse, err error) {
	if (req.Start == 0) != (req.End == 0) || req.End < req.Start {
		return nil, errorx.New(errorx.CodeRequestValidation, "start 与 end 必须同时提供且 end 不早于 start")
	}

	// 执行前必须完成变量替换，未提供变量时按空集合处理
	variables := req.Variables
	if variables == nil {
		variables = map[string]string{}
	}
	resolved, err := querymanager.ResolveQuery(req.Reference, l.svcCtx.QueryLibrary(), variables)
	if err != nil {
		l.Errorf("解析查询引用失败: reference=%s, error=%v", req.Reference, err)
		return nil, err
	}

	client, err := l.svcCtx.PrometheusManager.Get(req.Instance)
	if err != nil {
		l.Errorf("获取 Prometheus 客户端失败: instance=%s, error=%v", req.Instance, err)
		return nil, err
	}

	resp = &types.ExecuteQueryResponse{
		Instance: client.GetName(),
		Query:    resolved.Query,
	}

	if req.Start > 0 {
		results, err := client.QueryRange(l.ctx, resolved.Query, ptypes.TimeRange{
			Start: time.Unix(req.Start, 0),
			End:   time.Unix(req.End, 0),
			Step:  req.Step,
		})
		if err != nil {
			l.Errorf("范围查询失败: instance=%s, reference=%s, error=%v", client.GetName(), req.Reference, err)
			return nil, errorx.New(errorx.CodeConnection, err.Error())
		}
		resp.Range = results
		return resp, nil
	}

	var ts *time.Time
	if req.Time > 0 {
		t := time.Unix(req.Time, 0)
		ts = &t
	}
	results, err := client.Query(l.ctx, resolved.Query, ts)
	if err != nil {
		l.Errorf("即时查询失败: instance=%s, reference=%s, error=%v", client.GetName(), req.Reference, err)
		return nil, errorx.New(errorx.CodeConnection, err.Error())
	}
	resp.Instant = results
	return resp, nil
}
