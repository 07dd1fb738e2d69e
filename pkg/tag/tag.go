// Package tag implements the routing key attached to every request and the
// selector used to address one or more tags from a flow-control signal.
package tag

import "fmt"

// Kind distinguishes the three shapes a Tag can take.
type Kind int

const (
	// KindFallback is the sentinel tag for the default/unmatched route.
	// It compares equal only to itself.
	KindFallback Kind = iota
	// KindSequence is a tag carrying an arbitrary string identifier.
	KindSequence
	// KindHash is a tag carrying a numeric identifier (e.g. a shard or
	// rendezvous hash bucket).
	KindHash
)

// Fallback is the sentinel tag value. Use [Tag.IsFallback] or compare with
// Fallback directly; two Fallback tags are always equal, and a Fallback tag
// is never equal to any Sequence or Hash tag.
var Fallback = Tag{kind: KindFallback}

// Tag is the routing key carried by a Request. The zero value is the
// [Fallback] tag; construct other tags with [Sequence] or [Hash].
type Tag struct {
	kind Kind
	seq  string
	hash uint64
}

// Sequence builds a string-keyed Tag.
func Sequence(s string) Tag { return Tag{kind: KindSequence, seq: s} }

// Hash builds a numeric-keyed Tag.
func Hash(h uint64) Tag { return Tag{kind: KindHash, hash: h} }

// Kind reports which shape the tag takes.
func (t Tag) Kind() Kind { return t.kind }

// IsFallback reports whether t is the Fallback sentinel.
func (t Tag) IsFallback() bool { return t.kind == KindFallback }

// SequenceValue returns the string payload. Only meaningful when Kind is
// KindSequence.
func (t Tag) SequenceValue() string { return t.seq }

// HashValue returns the numeric payload. Only meaningful when Kind is
// KindHash.
func (t Tag) HashValue() uint64 { return t.hash }

// Equal reports structural equality: Fallback equals only Fallback, Sequence
// tags compare by string, Hash tags compare by number.
func (t Tag) Equal(o Tag) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindFallback:
		return true
	case KindSequence:
		return t.seq == o.seq
	case KindHash:
		return t.hash == o.hash
	default:
		return false
	}
}

// String renders a Tag for logs and panic diagnostics.
func (t Tag) String() string {
	switch t.kind {
	case KindFallback:
		return "Fallback"
	case KindSequence:
		return fmt.Sprintf("Sequence(%q)", t.seq)
	case KindHash:
		return fmt.Sprintf("Hash(%d)", t.hash)
	default:
		return "Tag(?)"
	}
}

// mapKey returns a comparable value suitable for use as a Go map key,
// preserving Tag's equality semantics (Fallback is a single key regardless
// of payload zero values).
func (t Tag) mapKey() any {
	switch t.kind {
	case KindFallback:
		return KindFallback
	case KindSequence:
		return t.seq
	case KindHash:
		return t.hash
	default:
		return t
	}
}

// MapKey exposes the comparable key used to index tags in maps (e.g. the
// Router's route table), so callers needing
// their own map[Tag]V-shaped structures key consistently with Tag.Equal.
func (t Tag) MapKey() any { return t.mapKey() }

// QueryKind selects which tags a [Query] addresses.
type QueryKind int

const (
	// QueryOwner matches only the invocation's owning tag, never Fallback.
	QueryOwner QueryKind = iota
	// QuerySingle matches exactly one tag.
	QuerySingle
	// QueryList matches any tag in a list.
	QueryList
	// QueryEvery matches every tag, including Fallback.
	QueryEvery
)

// Query selects one or more tags relative to an invocation's owner tag. It
// is used by FlowControl's Wait/Hold/Fail variants and by Error to scope a
// retry or abort.
type Query struct {
	kind   QueryKind
	single Tag
	list   []Tag
}

// Owner returns a Query matching only the invocation's owner tag.
func Owner() Query { return Query{kind: QueryOwner} }

// Single returns a Query matching exactly t.
func Single(t Tag) Query { return Query{kind: QuerySingle, single: t} }

// List returns a Query matching any of ts.
func List(ts ...Tag) Query { return Query{kind: QueryList, list: ts} }

// Every returns a Query matching every tag, including Fallback.
func Every() Query { return Query{kind: QueryEvery} }

// Kind reports which selection shape the Query takes.
func (q Query) Kind() QueryKind { return q.kind }

// Matches reports whether the query selects tag t, given the invocation's
// owner tag. QueryOwner never matches Fallback, even when owner is Fallback.
func (q Query) Matches(t, owner Tag) bool {
	switch q.kind {
	case QueryOwner:
		return !owner.IsFallback() && t.Equal(owner)
	case QuerySingle:
		return t.Equal(q.single)
	case QueryList:
		for _, candidate := range q.list {
			if t.Equal(candidate) {
				return true
			}
		}
		return false
	case QueryEvery:
		return true
	default:
		return false
	}
}

// Tags enumerates the concrete tags addressed by the query relative to
// owner. QueryEvery enumerates as [Fallback] since the universal match is
// stored under the Fallback key in maps keyed by concrete tags (see
// spec.md §4.H "Deferral matching").
func (q Query) Tags(owner Tag) []Tag {
	switch q.kind {
	case QueryOwner:
		if owner.IsFallback() {
			return nil
		}
		return []Tag{owner}
	case QuerySingle:
		return []Tag{q.single}
	case QueryList:
		return append([]Tag(nil), q.list...)
	case QueryEvery:
		return []Tag{Fallback}
	default:
		return nil
	}
}
