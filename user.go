package khub

import (
	"net"
	"time"

	"github.com/nats-io/nuid"
)

// Credential is a user's privilege level, gating hub commands.
type Credential int

const (
	CredNone Credential = iota
	CredGuest
	CredOperator
	CredAdmin
)

func (c Credential) String() string {
	switch c {
	case CredGuest:
		return "guest"
	case CredOperator:
		return "operator"
	case CredAdmin:
		return "admin"
	default:
		return "none"
	}
}

// User is one logged-in hub member: a session plus its identity.
type User struct {
	SID        string
	Nick       string
	Credential Credential
	Session    *IoSession
	Joined     time.Time
}

func NewUser(nick string, cred Credential, session *IoSession) *User {
	return &User{
		SID:        nuid.Next(),
		Nick:       nick,
		Credential: cred,
		Session:    session,
		Joined:     time.Now(),
	}
}

func (u *User) Addr() net.Addr {
	if u.Session == nil {
		return nil
	}
	return u.Session.RemoteAddr()
}

// Host returns the address without the port, the form used for bans.
func (u *User) Host() string {
	addr := u.Addr()
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
