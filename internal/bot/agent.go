package bot

import "flip/internal/domain"

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Strategy Brain
	// Backup is asked once when the strategy's command is rejected.
	Backup Brain
}

// Play asks the agent for its next command given its current view.
func (a *Agent) Play(view domain.View) (domain.Envelope, bool, error) {
	if view.Viewer != a.ID || view.Phase == domain.PhaseTerminal {
		return domain.Envelope{}, false, nil
	}
	return a.Strategy.Decide(view)
}

// Fallback asks the backup brain after a rejection.
func (a *Agent) Fallback(view domain.View) (domain.Envelope, bool, error) {
	if a.Backup == nil || view.Phase == domain.PhaseTerminal {
		return domain.Envelope{}, false, nil
	}
	return a.Backup.Decide(view)
}

// Close releases brains that hold resources, such as a Lua interpreter.
func (a *Agent) Close() {
	for _, b := range []Brain{a.Strategy, a.Backup} {
		if c, ok := b.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
