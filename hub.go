package khub

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrNickTaken = errors.New("nick already in use")
	ErrBanned    = errors.New("user is banned")
)

type HubStatus int32

const (
	HubStatusRunning HubStatus = iota
	HubStatusRestart
	HubStatusShutdown
)

// Hub is the user registry and message router of one hub instance. It builds
// outbound messages and pushes them into session send queues; it never
// touches queue internals beyond Send.
type Hub struct {
	name     string
	acl      *ACL
	commands *CommandSet
	started  time.Time
	status   int32

	mu        sync.RWMutex
	users     map[string]*User
	bySID     map[string]*User
	peakUsers int

	// Byte totals carried over from departed sessions; live sessions are
	// summed on demand.
	departedIn  int64
	departedOut int64
}

// HubStats is a point-in-time snapshot of hub counters.
type HubStats struct {
	Users     int
	PeakUsers int
	BytesIn   int64
	BytesOut  int64
	Uptime    time.Duration
}

func NewHub(name string) *Hub {
	return &Hub{
		name:     name,
		acl:      NewACL(),
		commands: NewCommandSet(),
		started:  time.Now(),
		users:    make(map[string]*User),
		bySID:    make(map[string]*User),
	}
}

func (h *Hub) Name() string {
	return h.name
}

func (h *Hub) ACL() *ACL {
	return h.acl
}

func (h *Hub) Commands() *CommandSet {
	return h.commands
}

func (h *Hub) Status() HubStatus {
	return HubStatus(atomic.LoadInt32(&h.status))
}

func (h *Hub) SetStatus(status HubStatus) {
	atomic.StoreInt32(&h.status, int32(status))
}

// Join adds a logged-in user. Banned users and duplicate nicks are refused.
func (h *Hub) Join(u *User) error {
	if h.acl.IsNickBanned(u.Nick) || h.acl.IsAddrBanned(u.Host()) {
		return ErrBanned
	}

	key := strings.ToLower(u.Nick)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, taken := h.users[key]; taken {
		return ErrNickTaken
	}

	h.users[key] = u
	h.bySID[u.SID] = u
	if n := len(h.users); n > h.peakUsers {
		h.peakUsers = n
	}
	return nil
}

// Leave removes a user; safe to call more than once.
func (h *Hub) Leave(u *User) {
	key := strings.ToLower(u.Nick)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.users[key] != u {
		return
	}

	delete(h.users, key)
	delete(h.bySID, u.SID)

	if u.Session != nil {
		h.departedIn += u.Session.conn.GetReadBytes()
		h.departedOut += u.Session.conn.GetWriteBytes()
	}
}

func (h *Hub) GetUserByNick(nick string) *User {
	h.mu.RLock()
	u := h.users[strings.ToLower(nick)]
	h.mu.RUnlock()
	return u
}

func (h *Hub) GetUserBySID(sid string) *User {
	h.mu.RLock()
	u := h.bySID[sid]
	h.mu.RUnlock()
	return u
}

func (h *Hub) UserCount() int {
	h.mu.RLock()
	n := len(h.users)
	h.mu.RUnlock()
	return n
}

func (h *Hub) Users() []*User {
	h.mu.RLock()
	users := make([]*User, 0, len(h.users))
	for _, u := range h.users {
		users = append(users, u)
	}
	h.mu.RUnlock()
	return users
}

// SendTo queues m on one user's session.
func (h *Hub) SendTo(u *User, m *Message) error {
	return u.Session.Send(m)
}

// Broadcast queues the same message on every user's session: one payload,
// one reference per queue. Users whose send queue is full are disconnected
// as too slow to keep up.
func (h *Hub) Broadcast(m *Message) {
	var slow []*User

	h.mu.RLock()
	for _, u := range h.users {
		if err := u.Session.Send(m); err != nil {
			slow = append(slow, u)
		}
	}
	h.mu.RUnlock()

	for _, u := range slow {
		defaultLogger.Printf("disconnecting slow user %q: pending=%d", u.Nick, u.Session.PendingBytes())
		h.DisconnectUser(u)
	}
}

// BroadcastLine broadcasts one newline-terminated text frame.
func (h *Hub) BroadcastLine(line string) {
	m := NewTextMessage(line + "\n")
	h.Broadcast(m)
	m.Decref()
}

// SendLine queues one newline-terminated text frame for a single user.
func (h *Hub) SendLine(u *User, line string) error {
	m := NewTextMessage(line + "\n")
	err := u.Session.Send(m)
	m.Decref()
	return err
}

// statusReply sends the "*** <cmd>: <text>" status line used by the command
// dispatcher.
func (h *Hub) statusReply(u *User, prefix, text string) error {
	return h.SendLine(u, fmt.Sprintf("*** %s: %s", prefix, text))
}

// DisconnectUser removes the user and tears down its session, dropping any
// unflushed bytes.
func (h *Hub) DisconnectUser(u *User) {
	h.Leave(u)
	if u.Session != nil {
		u.Session.Close()
	}
}

func (h *Hub) Uptime() time.Duration {
	return time.Since(h.started)
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := HubStats{
		Users:     len(h.users),
		PeakUsers: h.peakUsers,
		BytesIn:   h.departedIn,
		BytesOut:  h.departedOut,
		Uptime:    time.Since(h.started),
	}

	for _, u := range h.users {
		if u.Session != nil {
			stats.BytesIn += u.Session.conn.GetReadBytes()
			stats.BytesOut += u.Session.conn.GetWriteBytes()
		}
	}
	return stats
}
