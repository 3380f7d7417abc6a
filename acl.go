package khub

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists   = errors.New("user already registered")
	ErrAccessDenied = errors.New("access denied")
)

type ACLUser struct {
	Nick         string
	PasswordHash []byte
	Credential   Credential
}

// ACL holds registered users and active bans. Nicks are case-insensitive.
type ACL struct {
	mu          sync.RWMutex
	users       map[string]*ACLUser
	bannedNicks map[string]struct{}
	bannedAddrs map[string]struct{}
}

func NewACL() *ACL {
	return &ACL{
		users:       make(map[string]*ACLUser),
		bannedNicks: make(map[string]struct{}),
		bannedAddrs: make(map[string]struct{}),
	}
}

// Register stores a user with a bcrypt hash of password at the given
// credential level.
func (a *ACL) Register(nick, password string, cred Credential) error {
	key := strings.ToLower(nick)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.users[key]; exists {
		return ErrUserExists
	}

	a.users[key] = &ACLUser{
		Nick:         nick,
		PasswordHash: hash,
		Credential:   cred,
	}
	return nil
}

// Authenticate resolves the credential for a login attempt. Unregistered
// nicks log in as guests; registered nicks must present their password.
func (a *ACL) Authenticate(nick, password string) (Credential, error) {
	a.mu.RLock()
	user := a.users[strings.ToLower(nick)]
	a.mu.RUnlock()

	if user == nil {
		return CredGuest, nil
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return CredNone, ErrAccessDenied
	}
	return user.Credential, nil
}

func (a *ACL) BanNick(nick string) {
	a.mu.Lock()
	a.bannedNicks[strings.ToLower(nick)] = struct{}{}
	a.mu.Unlock()
}

func (a *ACL) UnbanNick(nick string) bool {
	key := strings.ToLower(nick)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, banned := a.bannedNicks[key]; !banned {
		return false
	}
	delete(a.bannedNicks, key)
	return true
}

func (a *ACL) IsNickBanned(nick string) bool {
	a.mu.RLock()
	_, banned := a.bannedNicks[strings.ToLower(nick)]
	a.mu.RUnlock()
	return banned
}

func (a *ACL) BanAddr(host string) {
	a.mu.Lock()
	a.bannedAddrs[host] = struct{}{}
	a.mu.Unlock()
}

func (a *ACL) UnbanAddr(host string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, banned := a.bannedAddrs[host]; !banned {
		return false
	}
	delete(a.bannedAddrs, host)
	return true
}

func (a *ACL) IsAddrBanned(host string) bool {
	a.mu.RLock()
	_, banned := a.bannedAddrs[host]
	a.mu.RUnlock()
	return banned
}
