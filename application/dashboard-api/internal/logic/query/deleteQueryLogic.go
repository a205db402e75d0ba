package query

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type DeleteQueryLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 删除用户查询，同名内置查询重新生效
func NewDeleteQueryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DeleteQueryLogic {
	return &DeleteQueryLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DeleteQueryLogic) DeleteQuery(req *types.DeleteQueryRequest) (resp string, err error) {
	if _, err := l.svcCtx.ConfigManager.DeleteQuery(l.ctx, req.Namespace, req.Name); err != nil {
		l.Errorf("删除用户查询失败: namespace=%s, name=%s, error=%v", req.Namespace, req.Name, err)
		return "", err
	}
	l.Infof("用户查询已删除: namespace=%s, name=%s", req.Namespace, req.Name)
	return "删除查询成功", nil
}
