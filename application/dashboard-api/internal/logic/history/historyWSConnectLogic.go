package history

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/logic/common/wsutil"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type HistoryWSConnectLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
	ws     *wsutil.WSConnection
}

// 订阅配置历史变更
func NewHistoryWSConnectLogic(ctx context.Context, svcCtx *svc.ServiceContext, ws *wsutil.WSConnection) *HistoryWSConnectLogic {
	return &HistoryWSConnectLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
		ws:     ws,
	}
}

func (l *HistoryWSConnectLogic) HistoryWSConnect(req *types.HistoryWSConnectRequest) error {
	var initial func() interface{}
	if req.Replay {
		initial = func() interface{} {
			return buildHistoryResponse(l.svcCtx.ConfigManager.History())
		}
	}
	l.svcCtx.HistoryHub.Register(l.ws, initial)
	defer l.svcCtx.HistoryHub.Unregister(l.ws)

	l.handleClientMessages()
	l.Info("历史订阅连接已关闭")
	return nil
}

func (l *HistoryWSConnectLogic) handleClientMessages() {
	for {
		if l.ws.IsClosed() {
			return
		}

		var msg wsutil.WSMessage
		if err := l.ws.ReadJSON(&msg); err != nil {
			if !l.ws.IsClosed() && !l.ws.IsClientClosed() {
				l.Errorf("读取消息失败: %v", err)
			}
			return
		}

		switch msg.Type {
		case wsutil.TypePing:
			if err := l.ws.SendMessage(wsutil.TypePong, nil); err != nil {
				l.Errorf("发送 pong 失败: %v", err)
				return
			}
		case wsutil.TypePong:
		default:
			l.Debugf("忽略客户端消息: type=%s", msg.Type)
		}
	}
}
