package host

// Patch describes an edit to one stored flag object, keyed by field name.
// It replaces ad-hoc merge maps: every mutation is an explicit Set, Remove,
// or nested Merge.
type Patch map[string]Op

type opKind int

const (
	opSet opKind = iota
	opRemove
	opMerge
)

// Op is a single patch operation for one field.
type Op struct {
	kind  opKind
	value any
	child Patch
}

// Set replaces the field with v.
func Set(v any) Op { return Op{kind: opSet, value: v} }

// Remove deletes the field.
func Remove() Op { return Op{kind: opRemove} }

// Merge applies a nested patch to the field's object value.
func Merge(p Patch) Op { return Op{kind: opMerge, child: p} }

// Apply merges p into dst and returns the result. A nil dst starts from an
// empty object. Merging into a field that is absent or not an object begins
// from an empty object, so nested patches never fault.
func Apply(dst map[string]any, p Patch) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(p))
	}
	for field, op := range p {
		switch op.kind {
		case opSet:
			dst[field] = op.value
		case opRemove:
			delete(dst, field)
		case opMerge:
			sub, _ := dst[field].(map[string]any)
			dst[field] = Apply(sub, op.child)
		}
	}
	return dst
}
