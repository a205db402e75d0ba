package history

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/zeromicro/go-zero/core/logx"
)

type ClearHistoryLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 清空历史，当前配置保持不变
func NewClearHistoryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ClearHistoryLogic {
	return &ClearHistoryLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ClearHistoryLogic) ClearHistory() (resp string, err error) {
	if err := l.svcCtx.ConfigManager.ClearHistory(l.ctx); err != nil {
		l.Errorf("清空历史失败: %v", err)
		return "", err
	}
	l.Info("配置历史已清空")
	return "清空历史成功", nil
}
