package notify

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cdw/institute/pkg/config"
	"github.com/cdw/institute/pkg/types"
)

// Notifier writes operator-facing messages into the inbox directories.
// Inboxes are plain text files read with the inbox commands; nothing
// here touches a store.
type Notifier struct {
	paths config.Paths
	clock types.Clock
}

// New returns a Notifier over the inbox tree.
func New(paths config.Paths, clock types.Clock) *Notifier {
	return &Notifier{paths: paths, clock: clock}
}

const escalationAlertBody = `ESCALATION ALERT - %s

Escalation ID: %d
Level: %s
Time: %s

Message:
%s

To acknowledge: institute --role=director escalation ack %d
To resolve: institute --role=director escalation resolve %d --note "resolution details"
`

const lockdownAlertBody = `SYSTEM LOCKDOWN TRIGGERED

Time: %s
Trigger: %s

Message:
%s

The system has entered LOCKDOWN mode due to unacknowledged L4 escalation.

To recover:
1. institute --role=director escalation list
2. institute --role=director escalation ack <id> (for all escalations)
3. institute --role=director recovery verify
4. institute --role=director recovery confirm
`

// EscalationAlert drops an alert message for a new or promoted
// escalation into the director inbox. Returns the file path.
func (n *Notifier) EscalationAlert(id int64, level types.Level, message string) (string, error) {
	now := n.clock.Now()
	name := fmt.Sprintf("escalation_%d_%s.txt", id, types.CompactTimestamp(now))
	content := fmt.Sprintf(escalationAlertBody,
		level, id, level, types.FormatTime(now), message, id, id)
	return n.write(name, content)
}

// LockdownAlert drops the lockdown announcement into the director
// inbox. Returns the file path.
func (n *Notifier) LockdownAlert(code, message string) (string, error) {
	now := n.clock.Now()
	name := fmt.Sprintf("LOCKDOWN_%s.txt", types.CompactTimestamp(now))
	content := fmt.Sprintf(lockdownAlertBody, types.FormatTime(now), code, message)
	return n.write(name, content)
}

func (n *Notifier) write(name, content string) (string, error) {
	if err := os.MkdirAll(n.paths.InboxDirectorDir, 0o755); err != nil {
		return "", fmt.Errorf("create director inbox: %w", err)
	}
	path := filepath.Join(n.paths.InboxDirectorDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write notification %s: %w", path, err)
	}
	return path, nil
}

// Messages lists a role's inbox files sorted by name. The compact
// timestamp in each name makes that chronological order.
func (n *Notifier) Messages(role types.Role) ([]string, error) {
	dir, ok := n.paths.InboxFor(role)
	if !ok {
		return nil, fmt.Errorf("no inbox for role %q", role)
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read inbox %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the name and content of a message by its 1-based
// position in the listing.
func (n *Notifier) Read(role types.Role, index int) (string, string, error) {
	names, err := n.Messages(role)
	if err != nil {
		return "", "", err
	}
	if index < 1 || index > len(names) {
		return "", "", fmt.Errorf("no message at position %d", index)
	}

	dir, _ := n.paths.InboxFor(role)
	name := names[index-1]
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", "", fmt.Errorf("read message %s: %w", name, err)
	}
	return name, string(data), nil
}
