package domain

import "strings"

// ActorKind distinguishes a human user from a named system process in the
// history ledger.
type ActorKind string

const (
	ActorUser   ActorKind = "user"
	ActorSystem ActorKind = "system"
)

// Actor attributes a fact change. Every ledger entry carries exactly one.
type Actor struct {
	Kind ActorKind
	Name string
}

// UserActor attributes a change to a human caller.
func UserActor(id string) Actor {
	return Actor{Kind: ActorUser, Name: id}
}

// SystemActor attributes a change to a named background process, e.g. the
// external-source reconciler.
func SystemActor(name string) Actor {
	return Actor{Kind: ActorSystem, Name: name}
}

func (a Actor) String() string {
	return string(a.Kind) + ":" + a.Name
}

func (a Actor) IsZero() bool {
	return a.Kind == "" && a.Name == ""
}

// ParseActor reverses Actor.String for store round-trips. Unprefixed values
// are treated as user actors for legacy rows.
func ParseActor(s string) Actor {
	kind, name, found := strings.Cut(s, ":")
	if !found {
		return Actor{Kind: ActorUser, Name: s}
	}
	switch ActorKind(kind) {
	case ActorUser, ActorSystem:
		return Actor{Kind: ActorKind(kind), Name: name}
	default:
		return Actor{Kind: ActorUser, Name: s}
	}
}
