package khub

import (
	"fmt"
	"strings"
	"time"
)

// Command is one parsed "!name arg..." control line.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a control line into name and arguments. Returns false
// when line is not a command (no '!' prefix or empty name).
func ParseCommand(line string) (*Command, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false
	}

	if !strings.HasPrefix(fields[0], "!") || len(fields[0]) < 2 {
		return nil, false
	}

	return &Command{
		Name: fields[0][1:],
		Args: fields[1:],
	}, true
}

type CommandFunc func(h *Hub, u *User, cmd *Command) error

type commandDef struct {
	name    string
	argSpec string
	cred    Credential
	fn      CommandFunc
	help    string
}

// syntax renders the argument spec for usage replies: one placeholder per
// spec character ('n' nick, 'a' addr, 'c' cid).
func (d *commandDef) syntax() string {
	parts := make([]string, 0, len(d.argSpec))
	for _, c := range d.argSpec {
		switch c {
		case 'n':
			parts = append(parts, "<nick>")
		case 'a':
			parts = append(parts, "<addr>")
		case 'c':
			parts = append(parts, "<cid>")
		}
	}
	return strings.Join(parts, " ")
}

// CommandSet is the control-command registry. It is built once before the
// hub starts serving and is read-only afterwards; Dispatch takes no lock.
type CommandSet struct {
	defs []commandDef
}

func NewCommandSet() *CommandSet {
	cs := &CommandSet{}

	cs.Register("help", "", CredGuest, "Show this help message.", cmdHelp)
	cs.Register("version", "", CredGuest, "Show hub version info.", cmdVersion)
	cs.Register("uptime", "", CredGuest, "Display hub uptime info.", cmdUptime)
	cs.Register("myip", "", CredGuest, "Show your own IP.", cmdMyIp)
	cs.Register("stats", "", CredAdmin, "Show hub statistics.", cmdStats)
	cs.Register("kick", "n", CredOperator, "Kick a user", cmdKick)
	cs.Register("ban", "n", CredOperator, "Ban a user", cmdBan)
	cs.Register("unban", "n", CredOperator, "Lift ban on a user", cmdUnban)
	cs.Register("getip", "n", CredOperator, "Show IP address for a user", cmdGetIp)
	cs.Register("reload", "", CredAdmin, "Reload configuration files.", cmdReload)
	cs.Register("shutdown", "", CredAdmin, "Shutdown hub.", cmdShutdown)

	return cs
}

// Register appends a command definition. Not safe to call once the hub is
// serving traffic.
func (cs *CommandSet) Register(name, argSpec string, cred Credential, help string, fn CommandFunc) {
	cs.defs = append(cs.defs, commandDef{
		name:    name,
		argSpec: argSpec,
		cred:    cred,
		fn:      fn,
		help:    help,
	})
}

func (cs *CommandSet) lookup(name string) *commandDef {
	for i := range cs.defs {
		if cs.defs[i].name == name {
			return &cs.defs[i]
		}
	}
	return nil
}

// Dispatch parses and runs one control line on behalf of u. Unknown names,
// missing credentials and bad arity all turn into status replies to the
// calling user, never into errors.
func (cs *CommandSet) Dispatch(h *Hub, u *User, line string) error {
	cmd, ok := ParseCommand(line)
	if !ok {
		return nil
	}

	def := cs.lookup(cmd.Name)
	if def == nil {
		return h.statusReply(u, cmd.Name, "Command not found")
	}

	if def.cred > u.Credential {
		return h.statusReply(u, cmd.Name, "Access denied.")
	}

	if len(cmd.Args) < len(def.argSpec) {
		if syntax := def.syntax(); syntax != "" {
			return h.statusReply(u, cmd.Name, fmt.Sprintf("Use: !%s %s", cmd.Name, syntax))
		}
		return h.statusReply(u, cmd.Name, fmt.Sprintf("Use: !%s", cmd.Name))
	}

	return def.fn(h, u, cmd)
}

func cmdHelp(h *Hub, u *User, cmd *Command) error {
	var b strings.Builder
	b.WriteString("Available commands:")

	for _, def := range h.commands.defs {
		if def.cred <= u.Credential {
			fmt.Fprintf(&b, " !%s - %s", def.name, def.help)
		}
	}
	return h.statusReply(u, cmd.Name, b.String())
}

func cmdVersion(h *Hub, u *User, cmd *Command) error {
	return h.statusReply(u, cmd.Name, "Powered by "+Product+"/"+Version)
}

func cmdUptime(h *Hub, u *User, cmd *Command) error {
	return h.statusReply(u, cmd.Name, formatUptime(h.Uptime()))
}

func cmdMyIp(h *Hub, u *User, cmd *Command) error {
	return h.statusReply(u, cmd.Name, fmt.Sprintf("Your address is %q", u.Host()))
}

func cmdStats(h *Hub, u *User, cmd *Command) error {
	stats := h.Stats()
	return h.statusReply(u, cmd.Name, fmt.Sprintf("%d users, peak: %d. Network (up/down): %d/%d KB",
		stats.Users,
		stats.PeakUsers,
		stats.BytesOut/1024,
		stats.BytesIn/1024,
	))
}

func cmdKick(h *Hub, u *User, cmd *Command) error {
	nick := cmd.Args[0]

	target := h.GetUserByNick(nick)
	if target == nil {
		return h.statusReply(u, cmd.Name, fmt.Sprintf("No user %q", nick))
	}

	if target == u {
		return h.statusReply(u, cmd.Name, "Cannot kick yourself")
	}

	h.DisconnectUser(target)
	return h.statusReply(u, cmd.Name, nick)
}

func cmdBan(h *Hub, u *User, cmd *Command) error {
	nick := cmd.Args[0]

	target := h.GetUserByNick(nick)
	if target == nil {
		return h.statusReply(u, cmd.Name, fmt.Sprintf("No user %q", nick))
	}

	if target == u {
		return h.statusReply(u, cmd.Name, "Cannot kick/ban yourself")
	}

	h.acl.BanNick(target.Nick)
	if host := target.Host(); host != "" {
		h.acl.BanAddr(host)
	}
	h.DisconnectUser(target)

	return h.statusReply(u, cmd.Name, nick)
}

func cmdUnban(h *Hub, u *User, cmd *Command) error {
	nick := cmd.Args[0]

	if !h.acl.UnbanNick(nick) {
		return h.statusReply(u, cmd.Name, fmt.Sprintf("No ban on %q", nick))
	}
	return h.statusReply(u, cmd.Name, nick)
}

func cmdGetIp(h *Hub, u *User, cmd *Command) error {
	nick := cmd.Args[0]

	target := h.GetUserByNick(nick)
	if target == nil {
		return h.statusReply(u, cmd.Name, fmt.Sprintf("No user %q", nick))
	}
	return h.statusReply(u, cmd.Name, fmt.Sprintf("%s has address %q", nick, target.Host()))
}

func cmdReload(h *Hub, u *User, cmd *Command) error {
	h.SetStatus(HubStatusRestart)
	return h.statusReply(u, cmd.Name, "Reloading configuration...")
}

func cmdShutdown(h *Hub, u *User, cmd *Command) error {
	h.SetStatus(HubStatusShutdown)
	return h.statusReply(u, cmd.Name, "Hub shutting down...")
}

func formatUptime(d time.Duration) string {
	total := int(d / time.Second)

	days := total / (24 * 3600)
	total %= 24 * 3600
	hours := total / 3600
	total %= 3600
	minutes := total / 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%d day", days)
		if days != 1 {
			b.WriteString("s")
		}
		b.WriteString(", ")
	}
	fmt.Fprintf(&b, "%02d:%02d", hours, minutes)
	return b.String()
}
