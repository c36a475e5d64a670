package app

import "flip/internal/domain"

// Project builds viewer's view of snap. It is a pure function: the rule
// engine filters hidden identities and the session layer adds the sequence
// number and the last tail log entries.
func Project(rules domain.Rules, sessionID string, snap *Snapshot, viewer string, tail int) domain.View {
	v := rules.Project(snap.State, viewer)
	v.SessionID = sessionID
	v.Seq = snap.Seq
	log := snap.Log
	if tail >= 0 && len(log) > tail {
		log = log[len(log)-tail:]
	}
	v.Log = append([]domain.LogEntry(nil), log...)
	return v
}
