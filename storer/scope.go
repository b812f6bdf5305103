package storer

import "github.com/w-h-a/reasoningbank/memory"

type scopeKind int

const (
	scopeAgent scopeKind = iota
	scopeGlobal
	scopeAll
)

// Scope selects which partition List reads.
type Scope struct {
	kind    scopeKind
	agentId string
}

// AgentScope selects exactly the records tagged with agentId. An empty
// agentId is the same as GlobalScope.
func AgentScope(agentId string) Scope {
	if len(agentId) == 0 {
		return GlobalScope()
	}
	return Scope{kind: scopeAgent, agentId: agentId}
}

// GlobalScope selects exactly the records without an agent id.
func GlobalScope() Scope {
	return Scope{kind: scopeGlobal}
}

// AllScope selects every record regardless of partition.
func AllScope() Scope {
	return Scope{kind: scopeAll}
}

func (s Scope) Matches(rec memory.Record) bool {
	switch s.kind {
	case scopeAll:
		return true
	case scopeGlobal:
		return rec.Global()
	default:
		return rec.AgentId == s.agentId
	}
}

// AgentId returns the partition key and false for the all scope.
func (s Scope) AgentId() (string, bool) {
	switch s.kind {
	case scopeAll:
		return "", false
	case scopeGlobal:
		return "", true
	default:
		return s.agentId, true
	}
}

func (s Scope) String() string {
	switch s.kind {
	case scopeAll:
		return "all"
	case scopeGlobal:
		return "global"
	default:
		return "agent:" + s.agentId
	}
}
