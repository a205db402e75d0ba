package wsutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeromicro/go-zero/core/logx"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // 生产环境需要严格验证
	},
}

// ==================== 消息类型定义 ====================
const (
	TypeError = "error"
	TypePing  = "ping"
	TypePong  = "pong"

	TypeHistoryInit  = "history_init"  // 连接建立后推送当前历史
	TypeHistoryEvent = "history_event" // 历史变更事件
)

const (
	writeTimeout     = 10 * time.Second
	enqueueTimeout   = 5 * time.Second
	readTimeout      = 60 * time.Second
	pongTimeout      = 90 * time.Second
	maxMissedPings   = 3
	writeChanBufSize = 64
)

// WSMessage WebSocket 消息结构
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ErrorMessage 错误消息
type ErrorMessage struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// ==================== WebSocket 连接封装 ====================

type WSConnection struct {
	conn         *websocket.Conn
	writeMu      sync.Mutex
	closeChan    chan struct{}
	closeOnce    sync.Once
	writeChan    chan []byte
	closed       atomic.Bool
	clientClosed atomic.Bool
	lastWrite    atomic.Int64
	lastPong     atomic.Int64
	missedPings  atomic.Int32
}

// UpgradeWebSocket 升级 HTTP 连接为 WebSocket
func UpgradeWebSocket(w http.ResponseWriter, r *http.Request) (*WSConnection, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	ws := &WSConnection{
		conn:      conn,
		closeChan: make(chan struct{}),
		writeChan: make(chan []byte, writeChanBufSize),
	}
	ws.lastWrite.Store(now)
	ws.lastPong.Store(now)

	conn.SetPongHandler(func(string) error {
		ws.lastPong.Store(time.Now().Unix())
		ws.missedPings.Store(0)
		return ws.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	conn.SetCloseHandler(func(code int, text string) error {
		logx.Infof("收到客户端关闭帧: code=%d, text=%s", code, text)
		ws.clientClosed.Store(true)
		return ws.Close()
	})

	go ws.writeLoop()

	return ws, nil
}

// writeLoop 串行写出队列中的消息
func (c *WSConnection) writeLoop() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("WebSocket writeLoop panic: %v", r)
		}
	}()

	for {
		select {
		case data := <-c.writeChan:
			if err := c.writeMessage(websocket.TextMessage, data); err != nil {
				if !c.IsClosed() && !c.IsClientClosed() {
					logx.Errorf("WebSocket 写入错误: %v", err)
				}
				c.Close()
				return
			}
		case <-c.closeChan:
			return
		}
	}
}

func (c *WSConnection) writeMessage(messageType int, data []byte) error {
	if c.IsClosed() {
		return websocket.ErrCloseSent
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		return err
	}

	c.lastWrite.Store(time.Now().Unix())
	return nil
}

// WriteJSON 序列化后放入写队列
func (c *WSConnection) WriteJSON(msg interface{}) error {
	if c.IsClosed() {
		return websocket.ErrCloseSent
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	timer := time.NewTimer(enqueueTimeout)
	defer timer.Stop()

	select {
	case <-c.closeChan:
		return websocket.ErrCloseSent
	case c.writeChan <- data:
		return nil
	case <-timer.C:
		logx.Error("WebSocket 写入通道超时")
		return errors.New("write timeout")
	}
}

// ReadJSON 读取 JSON 消息
func (c *WSConnection) ReadJSON(v interface{}) error {
	if c.IsClosed() {
		return websocket.ErrCloseSent
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return err
	}

	err := c.conn.ReadJSON(v)
	if err == nil {
		return nil
	}

	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
	) {
		logx.Infof("客户端关闭连接: %v", err)
		c.clientClosed.Store(true)
		c.Close()
		return err
	}

	if websocket.IsUnexpectedCloseError(err) {
		logx.Errorf("WebSocket 异常关闭: %v", err)
		c.clientClosed.Store(true)
		c.Close()
	}
	return err
}

// Close 关闭连接，可重复调用
func (c *WSConnection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeChan)

		if !c.clientClosed.Load() {
			c.writeMu.Lock()
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server closing"),
				time.Now().Add(time.Second),
			)
			c.writeMu.Unlock()
		}

		err = c.conn.Close()
		logx.Debug("WebSocket 连接已关闭")
	})
	return err
}

// IsClosed 检查连接是否已关闭
func (c *WSConnection) IsClosed() bool {
	return c.closed.Load()
}

// IsClientClosed 检查是否是客户端主动关闭
func (c *WSConnection) IsClientClosed() bool {
	return c.clientClosed.Load()
}

// CloseChan 获取关闭通道
func (c *WSConnection) CloseChan() <-chan struct{} {
	return c.closeChan
}

// StartPingPong 启动心跳检测
func (c *WSConnection) StartPingPong(interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		defer func() {
			if r := recover(); r != nil {
				logx.Errorf("心跳检测 panic: %v", r)
			}
		}()

		for {
			select {
			case <-ticker.C:
				if c.IsClosed() || c.IsClientClosed() {
					return
				}

				if missed := c.missedPings.Load(); missed >= maxMissedPings {
					logx.Errorf("客户端未响应心跳，已丢失 %d 次，关闭连接", missed)
					c.Close()
					return
				}

				if err := c.writeMessage(websocket.PingMessage, nil); err != nil {
					if !c.IsClosed() && !c.IsClientClosed() {
						logx.Errorf("发送心跳失败: %v", err)
					}
					c.Close()
					return
				}
				c.missedPings.Add(1)

			case <-c.closeChan:
				return
			}
		}
	}()
}

// IsConnectionAlive 检查连接是否活跃
func (c *WSConnection) IsConnectionAlive() bool {
	if c.IsClosed() || c.IsClientClosed() {
		return false
	}
	return time.Since(time.Unix(c.lastPong.Load(), 0)) <= pongTimeout
}

// ==================== 便捷方法 ====================

func (c *WSConnection) SendMessage(msgType string, data interface{}) error {
	return c.WriteJSON(WSMessage{
		Type: msgType,
		Data: data,
	})
}

func (c *WSConnection) SendError(code int, err error) error {
	if c.IsClientClosed() {
		return nil
	}
	return c.SendMessage(TypeError, ErrorMessage{
		Code:    code,
		Message: err.Error(),
	})
}
