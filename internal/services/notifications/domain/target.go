package domain

import (
	"context"
	"log"
	"strings"
)

// TargetKind discriminates the entity type a notification references.
type TargetKind string

const (
	// TargetKindPost references an item in the external content store.
	TargetKindPost TargetKind = "post"
	// TargetKindComment references a recorded comment interaction.
	TargetKindComment TargetKind = "comment"
	// TargetKindAccount references an account in the identity subsystem.
	TargetKindAccount TargetKind = "account"
)

// Target is the resolved display view of a polymorphic notification
// reference. Found is false when the referenced entity no longer exists or
// the kind has no registered resolver.
type Target struct {
	Kind    TargetKind
	ID      string
	Summary string
	Found   bool
}

// Resolver loads the display view for one target kind. Implementations return
// found=false for dangling references instead of an error.
type Resolver func(ctx context.Context, targetID string) (summary string, found bool, err error)

// ResolverSet dispatches target resolution by kind.
type ResolverSet struct {
	resolvers map[TargetKind]Resolver
}

// NewResolverSet constructs an empty resolver registry.
func NewResolverSet() *ResolverSet {
	return &ResolverSet{resolvers: make(map[TargetKind]Resolver)}
}

// Register associates a resolver with one target kind. A nil resolver removes
// the registration.
func (r *ResolverSet) Register(kind TargetKind, resolver Resolver) {
	if r == nil || r.resolvers == nil {
		return
	}
	kind = TargetKind(strings.TrimSpace(string(kind)))
	if kind == "" {
		return
	}
	if resolver == nil {
		delete(r.resolvers, kind)
		return
	}
	r.resolvers[kind] = resolver
}

// Resolve loads the display target for one (kind, id) reference. Unknown
// kinds, missing ids, dangling references, and resolver failures all produce
// an absent target; display must never fail because the referenced entity
// went away.
func (r *ResolverSet) Resolve(ctx context.Context, kind TargetKind, targetID string) Target {
	kind = TargetKind(strings.TrimSpace(string(kind)))
	targetID = strings.TrimSpace(targetID)
	target := Target{Kind: kind, ID: targetID}
	if r == nil || r.resolvers == nil || kind == "" || targetID == "" {
		return target
	}
	resolver, ok := r.resolvers[kind]
	if !ok {
		return target
	}
	summary, found, err := resolver(ctx, targetID)
	if err != nil {
		log.Printf("resolve %s target %s: %v", kind, targetID, err)
		return target
	}
	if !found {
		return target
	}
	target.Summary = summary
	target.Found = true
	return target
}
