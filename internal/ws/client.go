package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	// 超过该状态码表示策略性关闭：4000 被新连接顶替，4001 未授权。
	closeSuperseded   = 4000
	closeUnauthorized = 4001
)

// Client 是一条活跃连接的独占句柄，send 缓冲写满视为投递失败。
type Client struct {
	userID      uuid.UUID
	username    string
	displayName string
	avatarColor string

	conn      *websocket.Conn
	send      chan []byte
	closing   chan struct{}
	closeOnce sync.Once
	closeCode int
}

func newClient(conn *websocket.Conn, profile *UserProfile, sendBuffer int) *Client {
	return &Client{
		userID:      profile.ID,
		username:    profile.Username,
		displayName: profile.DisplayName,
		avatarColor: profile.AvatarColor,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		closing:     make(chan struct{}),
	}
}

func (c *Client) sender() *SenderInfo {
	return &SenderInfo{ID: c.userID, Username: c.username, DisplayName: c.displayName, AvatarColor: c.avatarColor}
}

// trySend 非阻塞投递。连接已关闭或缓冲写满都算失败，由调用方决定摘除。
func (c *Client) trySend(payload []byte) bool {
	select {
	case <-c.closing:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// shutdown 幂等：停掉 writePump 并记录关闭码，底层 socket 随后关闭。
func (c *Client) shutdown(code int) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		close(c.closing)
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				c.shutdown(websocket.CloseGoingAway)
				return
			}
			_, _ = w.Write(message)
			if err := w.Close(); err != nil {
				c.shutdown(websocket.CloseGoingAway)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown(websocket.CloseGoingAway)
				return
			}
		case <-c.closing:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			msg := websocket.FormatCloseMessage(c.closeCode, "")
			_ = c.conn.WriteMessage(websocket.CloseMessage, msg)
			return
		}
	}
}
