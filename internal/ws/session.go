package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/boltayevjahongir/local-chat/internal/config"
	"github.com/boltayevjahongir/local-chat/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// session 是单条连接的协调器：认证、注册、自动入房、收包循环与一次性拆除。
type session struct {
	reg    *Registry
	store  Store
	cfg    config.Config
	client *Client
	limit  *rate.Limiter
	once   sync.Once
}

// Serve 返回 WebSocket 接入端点。token 来自 query 参数或 Bearer 头，
// 无效凭证在升级后立即以 4001 关闭，不触碰任何在线状态。
func Serve(reg *Registry, store Store, authFn Authenticator, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if authz := c.GetHeader("Authorization"); token == "" && len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
			token = authz[7:]
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		userID, err := authFn(token)
		if err != nil {
			closeWith(conn, closeUnauthorized, "unauthorized")
			return
		}
		profile, err := store.UserByID(c.Request.Context(), userID)
		if err != nil {
			closeWith(conn, closeUnauthorized, "unauthorized")
			return
		}

		s := &session{
			reg:    reg,
			store:  store,
			cfg:    cfg,
			client: newClient(conn, profile, cfg.WSSendBuffer),
			limit:  rate.NewLimiter(rate.Limit(cfg.WSIntentRate), cfg.WSIntentBurst),
		}
		s.run(c.Request.Context())
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}

func (s *session) run(ctx context.Context) {
	c := s.client
	defer s.teardown(context.WithoutCancel(ctx))

	// 同一用户后连接的获胜，被顶替的旧 socket 主动关闭。
	if prev := s.reg.Register(c); prev != nil {
		prev.shutdown(closeSuperseded)
	}
	metrics.WsConnections.Inc()
	go c.writePump()

	if err := s.store.SetOnline(ctx, c.userID); err != nil {
		log.Warn().Err(err).Stringer("user_id", c.userID).Msg("ws set online")
	}
	groupIDs, err := s.store.GroupIDs(ctx, c.userID)
	if err != nil {
		// 成员关系查不到只影响自动入房，连接保持可用。
		log.Warn().Err(err).Stringer("user_id", c.userID).Msg("ws load memberships")
	}
	for _, gid := range groupIDs {
		s.reg.JoinRoom(c.userID, gid)
	}

	if b, err := json.Marshal(UserStatusEvent{Type: "user_status", UserID: c.userID, IsOnline: true}); err == nil {
		s.reg.BroadcastToAll(b, c.userID)
	}

	s.readLoop(ctx)
}

// readLoop 串行消费入站意图，一条处理完才读下一条。
// 解码失败或超速的意图直接丢弃，连接本身不受影响。
func (s *session) readLoop(ctx context.Context) {
	c := s.client
	idle := time.Duration(s.cfg.WSIdleSeconds) * time.Second
	c.conn.SetReadLimit(1 << 20) // 1MB
	_ = c.conn.SetReadDeadline(time.Now().Add(idle))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(idle))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(idle))
		if !s.limit.Allow() {
			metrics.WsIntentsDropped.Inc()
			continue
		}
		var in Intent
		if err := json.Unmarshal(data, &in); err != nil || in.GroupID == uuid.Nil {
			metrics.WsIntentsDropped.Inc()
			continue
		}
		s.handleIntent(ctx, in)
	}
}

func (s *session) handleIntent(ctx context.Context, in Intent) {
	c := s.client
	switch in.Type {
	case IntentChatMessage:
		s.handleChatMessage(ctx, in)
	case IntentTyping:
		isTyping := true
		if in.IsTyping != nil {
			isTyping = *in.IsTyping
		}
		evt := TypingEvent{Type: "typing", GroupID: in.GroupID, UserID: c.userID, IsTyping: isTyping}
		if b, err := json.Marshal(evt); err == nil {
			s.reg.BroadcastToRoom(in.GroupID, b, c.userID)
		}
	case IntentJoinRoom:
		// 静默授权：入房后开始接收该房间的后续事件，无需重连。
		s.reg.JoinRoom(c.userID, in.GroupID)
	default:
		metrics.WsIntentsDropped.Inc()
	}
}

// handleChatMessage 先落库后广播；持久化失败时丢弃意图，零事件外泄。
func (s *session) handleChatMessage(ctx context.Context, in Intent) {
	c := s.client
	msgType := in.MessageType
	if msgType == "" {
		msgType = "text"
	}
	saved, err := s.store.SaveMessage(ctx, SaveMessageParams{
		GroupID:          in.GroupID,
		SenderID:         c.userID,
		Content:          in.Content,
		MessageType:      msgType,
		FileAttachmentID: in.FileAttachmentID,
	})
	if err != nil {
		log.Error().Err(err).Stringer("user_id", c.userID).Stringer("group_id", in.GroupID).Msg("ws save message")
		return
	}
	evt := ChatMessageEvent{
		Type:           "chat_message",
		ID:             saved.ID,
		GroupID:        in.GroupID,
		SenderID:       c.userID,
		Sender:         c.sender(),
		Content:        in.Content,
		MessageType:    msgType,
		CreatedAt:      saved.CreatedAt,
		FileAttachment: saved.Attachment,
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	metrics.WsMessagesTotal.Inc()
	// 不排除发送者：回声用于客户端确认与本地时钟对齐。
	s.reg.BroadcastToRoom(in.GroupID, b, uuid.Nil)
}

// teardown 是唯一的拆除路径，关闭、解码失败、写失败、空闲超时都收敛到这里。
func (s *session) teardown(ctx context.Context) {
	s.once.Do(func() {
		c := s.client
		c.shutdown(websocket.CloseNormalClosure)
		s.reg.RemoveClient(c)
		metrics.WsConnections.Dec()
		if s.reg.IsOnline(c.userID) {
			// 已被新连接顶替，在线状态的归属随之转移。
			return
		}
		if err := s.store.SetOffline(ctx, c.userID, time.Now().UTC()); err != nil {
			log.Warn().Err(err).Stringer("user_id", c.userID).Msg("ws set offline")
		}
		if b, err := json.Marshal(UserStatusEvent{Type: "user_status", UserID: c.userID, IsOnline: false}); err == nil {
			s.reg.BroadcastToAll(b, uuid.Nil)
		}
	})
}
