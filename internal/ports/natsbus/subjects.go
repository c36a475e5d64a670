package natsbus

import (
	"fmt"
	"strings"
)

// Subjects names every subject the bridge uses under one prefix.
type Subjects struct {
	Prefix string
}

func (s Subjects) Create() string  { return s.Prefix + ".games.create" }
func (s Subjects) List() string    { return s.Prefix + ".games.list" }
func (s Subjects) Results() string { return s.Prefix + ".results" }

// Command and View are wildcard subscriptions; the session id is the third
// token.
func (s Subjects) Command() string { return s.Prefix + ".session.*.command" }
func (s Subjects) View() string    { return s.Prefix + ".session.*.view" }

func (s Subjects) CommandFor(sessionID string) string {
	return fmt.Sprintf("%s.session.%s.command", s.Prefix, sessionID)
}

func (s Subjects) ViewFor(sessionID string) string {
	return fmt.Sprintf("%s.session.%s.view", s.Prefix, sessionID)
}

// Updates is where the views of player are mirrored.
func (s Subjects) Updates(sessionID, player string) string {
	return fmt.Sprintf("%s.session.%s.updates.%s", s.Prefix, sessionID, player)
}

// SessionID extracts the session token of a per-session subject.
func (s Subjects) SessionID(subject string) (string, error) {
	rest, ok := strings.CutPrefix(subject, s.Prefix+".session.")
	if !ok {
		return "", fmt.Errorf("subject %q is outside %s", subject, s.Prefix)
	}
	id, _, ok := strings.Cut(rest, ".")
	if !ok || id == "" {
		return "", fmt.Errorf("subject %q has no session", subject)
	}
	return id, nil
}
