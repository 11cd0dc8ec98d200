package ws

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/boltayevjahongir/local-chat/internal/metrics"
)

// Registry 是在线状态的唯一权威：user→连接、room→成员两个索引
// 始终在同一把锁下一起变更，拆除对后续广播不可见任何中间态。
type Registry struct {
	mu    sync.Mutex
	users map[uuid.UUID]*Client
	rooms map[uuid.UUID]map[uuid.UUID]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		users: make(map[uuid.UUID]*Client),
		rooms: make(map[uuid.UUID]map[uuid.UUID]*Client),
	}
}

// Register 安装用户当前连接，后连接的获胜，返回被顶替的旧连接（若有）。
// 旧连接只从索引中消失，是否关闭其 socket 由调用方决定。
func (r *Registry) Register(c *Client) (prev *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev = r.users[c.userID]
	if prev != nil {
		r.detachLocked(prev)
	}
	r.users[c.userID] = c
	return prev
}

// JoinRoom 将用户现有连接加入房间；用户不在线时静默跳过。
func (r *Registry) JoinRoom(userID, groupID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.users[userID]
	if c == nil {
		return
	}
	room := r.rooms[groupID]
	if room == nil {
		room = make(map[uuid.UUID]*Client)
		r.rooms[groupID] = room
	}
	room[userID] = c
}

// Remove 摘除该用户的当前连接，重复调用为空操作。
func (r *Registry) Remove(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.users[userID]
	if c == nil {
		return false
	}
	r.detachLocked(c)
	return true
}

// RemoveClient 仅当 c 仍是该用户的当前连接时才摘除，
// 避免被顶替会话的拆除误删新连接。
func (r *Registry) RemoveClient(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.users[c.userID] != c {
		return false
	}
	r.detachLocked(c)
	return true
}

// detachLocked 把连接从所有房间和在线索引中一并摘除，空房间即删。
func (r *Registry) detachLocked(c *Client) {
	for groupID, room := range r.rooms {
		if room[c.userID] != c {
			continue
		}
		delete(room, c.userID)
		if len(room) == 0 {
			delete(r.rooms, groupID)
		}
	}
	if r.users[c.userID] == c {
		delete(r.users, c.userID)
	}
}

func (r *Registry) IsOnline(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID] != nil
}

// OnlineUserIDs 返回调用时刻的在线用户快照。
func (r *Registry) OnlineUserIDs() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) RoomSize(groupID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[groupID])
}

// BroadcastToRoom 把事件投递给房间内除 exclude 外的全部成员。
// 投递失败的连接按断开处理，但不影响同批其他成员。
func (r *Registry) BroadcastToRoom(groupID uuid.UUID, payload []byte, exclude uuid.UUID) {
	r.mu.Lock()
	room := r.rooms[groupID]
	targets := make([]*Client, 0, len(room))
	for userID, c := range room {
		if userID == exclude {
			continue
		}
		targets = append(targets, c)
	}
	r.mu.Unlock()
	r.deliver(targets, payload)
}

// BroadcastToAll 与 BroadcastToRoom 同约定，范围是全部在线连接。
func (r *Registry) BroadcastToAll(payload []byte, exclude uuid.UUID) {
	r.mu.Lock()
	targets := make([]*Client, 0, len(r.users))
	for userID, c := range r.users {
		if userID == exclude {
			continue
		}
		targets = append(targets, c)
	}
	r.mu.Unlock()
	r.deliver(targets, payload)
}

// deliver 先对快照逐个尝试投递，收集失败者，循环结束后统一摘除。
func (r *Registry) deliver(targets []*Client, payload []byte) {
	var failed []*Client
	for _, c := range targets {
		if !c.trySend(payload) {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		metrics.WsDroppedRecipients.Inc()
		c.shutdown(websocket.CloseGoingAway)
		r.RemoveClient(c)
	}
	metrics.WsBroadcastsTotal.Inc()
}
