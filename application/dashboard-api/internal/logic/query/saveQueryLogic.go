package query

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type SaveQueryLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 保存用户查询，名称必须带版本后缀
func NewSaveQueryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SaveQueryLogic {
	return &SaveQueryLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *SaveQueryLogic) SaveQuery(req *types.SaveQueryRequest) (resp string, err error) {
	if _, err := l.svcCtx.ConfigManager.SaveQuery(l.ctx, req.Namespace, req.Name, req.Template); err != nil {
		l.Errorf("保存用户查询失败: namespace=%s, name=%s, error=%v", req.Namespace, req.Name, err)
		return "", err
	}
	l.Infof("用户查询已保存: namespace=%s, name=%s", req.Namespace, req.Name)
	return "保存查询成功", nil
}
