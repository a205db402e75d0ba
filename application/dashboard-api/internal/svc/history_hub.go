package svc

import (
	"context"
	"sync"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/logic/common/wsutil"
	"github.com/yanshicheng/kube-nova-board/common/historymanager"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/threading"
)

const hubEventBuffer = 256

// registration 待注册的连接，initial 非空时在注册后先推送其返回值
type registration struct {
	conn    *wsutil.WSConnection
	initial func() interface{}
}

// HistoryHub 把配置历史变更事件推送给所有 WebSocket 客户端
type HistoryHub struct {
	clients    map[*wsutil.WSConnection]struct{}
	clientsMux sync.RWMutex

	broadcaster historymanager.Broadcaster
	events      <-chan historymanager.Event
	unsubscribe func()

	register   chan registration
	unregister chan *wsutil.WSConnection

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	logger logx.Logger
}

// NewHistoryHub 创建 Hub
func NewHistoryHub(b historymanager.Broadcaster) *HistoryHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &HistoryHub{
		clients:     make(map[*wsutil.WSConnection]struct{}),
		broadcaster: b,
		register:    make(chan registration, 16),
		unregister:  make(chan *wsutil.WSConnection, 16),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		logger:      logx.WithContext(ctx),
	}
}

// Start 订阅历史事件并启动主循环
func (h *HistoryHub) Start() {
	h.events, h.unsubscribe = h.broadcaster.Subscribe(hubEventBuffer)
	threading.GoSafe(h.run)
	h.logger.Info("配置历史 WebSocket Hub 启动")
}

// Stop 停止主循环并关闭所有连接
func (h *HistoryHub) Stop() {
	h.cancel()
	if h.unsubscribe != nil {
		h.unsubscribe()
		<-h.done
	}

	h.clientsMux.Lock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*wsutil.WSConnection]struct{})
	h.clientsMux.Unlock()

	h.logger.Info("配置历史 WebSocket Hub 已停止")
}

func (h *HistoryHub) run() {
	defer close(h.done)
	for {
		select {
		case reg := <-h.register:
			h.add(reg)

		case conn := <-h.unregister:
			h.remove(conn)

		case event, ok := <-h.events:
			if !ok {
				return
			}
			h.broadcast(event)

		case <-h.ctx.Done():
			h.logger.Info("Hub 主循环退出")
			return
		}
	}
}

// add 在主循环内注册并推送初始数据，之后的事件一定排在初始数据之后
func (h *HistoryHub) add(reg registration) {
	h.clientsMux.Lock()
	h.clients[reg.conn] = struct{}{}
	total := len(h.clients)
	h.clientsMux.Unlock()
	h.logger.Infof("客户端已注册: 当前连接数=%d", total)

	if reg.initial == nil {
		return
	}
	msg := wsutil.WSMessage{Type: wsutil.TypeHistoryInit, Data: reg.initial()}
	if err := reg.conn.WriteJSON(msg); err != nil {
		h.logger.Errorf("推送初始历史失败: error=%v", err)
		h.remove(reg.conn)
	}
}

func (h *HistoryHub) remove(conn *wsutil.WSConnection) {
	h.clientsMux.Lock()
	_, exists := h.clients[conn]
	delete(h.clients, conn)
	total := len(h.clients)
	h.clientsMux.Unlock()

	if exists {
		h.logger.Infof("客户端已注销: 剩余连接数=%d", total)
	}
}

func (h *HistoryHub) broadcast(event historymanager.Event) {
	h.clientsMux.RLock()
	conns := make([]*wsutil.WSConnection, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clientsMux.RUnlock()

	msg := wsutil.WSMessage{Type: wsutil.TypeHistoryEvent, Data: event}
	failCount := 0
	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Errorf("推送历史事件失败: type=%s, error=%v", event.Type, err)
			h.remove(conn)
			failCount++
		}
	}

	h.logger.Infof("推送历史事件完成: type=%s, snapshotId=%s, 成功=%d, 失败=%d",
		event.Type, event.SnapshotID, len(conns)-failCount, failCount)
}

// Register 注册连接，initial 非空时注册后立即推送 history_init
func (h *HistoryHub) Register(conn *wsutil.WSConnection, initial func() interface{}) {
	select {
	case h.register <- registration{conn: conn, initial: initial}:
	case <-h.ctx.Done():
	}
}

// Unregister 注销连接
func (h *HistoryHub) Unregister(conn *wsutil.WSConnection) {
	select {
	case h.unregister <- conn:
	case <-h.ctx.Done():
	}
}

// ClientCount 当前连接数
func (h *HistoryHub) ClientCount() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}
