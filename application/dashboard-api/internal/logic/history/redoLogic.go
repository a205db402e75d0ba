package history

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type RedoLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRedoLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RedoLogic {
	return &RedoLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *RedoLogic) Redo() (resp *types.HistoryResultResponse, err error) {
	result, err := l.svcCtx.ConfigManager.Redo(l.ctx)
	if err != nil {
		l.Errorf("重做失败: %v", err)
		return nil, err
	}
	return toResultResponse(result), nil
}
