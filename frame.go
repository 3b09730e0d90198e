package aslan

import "strings"

// frame is a stack entry: either a mapFrame or a sequenceFrame. Both
// expose the same "current slot" surface so the o/a/p/v transitions in
// parser.go can be written once and applied uniformly regardless of
// whether the enclosing scope is a Map or a Sequence.
type frame interface {
	// value is the frame's own target container.
	value() *Value
	// hasSlot reports whether a key/index has been selected in this
	// frame yet. A MapFrame that is not the document root has no slot
	// until its first `d`; a SequenceFrame has no slot until its first
	// `d`.
	hasSlot() bool
	// slot returns the value currently stored at the selected
	// key/index. Must not be called unless hasSlot() is true.
	slot() *Value
	// setSlot replaces the value at the selected key/index.
	setSlot(v *Value)
	// poppable reports whether this frame may ever be popped. Only the
	// document root MapFrame is not poppable.
	poppable() bool
	// fresh reports whether the currently selected key/index is a
	// RE-occurrence: it already existed the last time a `d` named it,
	// as opposed to being named for the very first time. A key's
	// first-ever `d` leaves fresh false; only a later `d` re-naming an
	// already-established key or index sets it true. handleToggle uses
	// this to decide whether an `o`/`a` may blow away what's already
	// in the slot (reopen a same-kind container, or force an open at
	// the document root) versus leaving a first-time value alone.
	fresh() bool
	setFresh(v bool)
}

// mapFrame is a stack entry for an open Map scope.
type mapFrame struct {
	target *Value // Kind() == KindMap
	isRoot bool

	// currentKey is "" until the frame's first `d`, except for the
	// root frame, which starts pointed at the default field.
	currentKey string

	// writable is false when the selected key is a `first`-policy key
	// that has been finalized, so its further literal characters are
	// discarded. Text aimed at a key holding a Map or Sequence is
	// dropped separately, in appendLiteralMap.
	writable bool

	// pendingSeparator is true when the next literal append to
	// currentKey should be preceded by Options.AppendSeparator.
	pendingSeparator bool

	// isFresh is true when currentKey was just re-selected by a `d`
	// that named a key already present in keyPolicies, false when it
	// was named for the first time.
	isFresh bool

	keyPolicies  map[string]KeyPolicy
	keyFinalized map[string]bool
	keyVoided    map[string]bool
	// partMode marks keys whose value is a Sequence produced by `p`
	// (part) rather than `a` (array): further literal characters for
	// such a key append to the Sequence's last element instead of
	// being rejected outright, the way a plain `d`-then-Sequence
	// collision would be.
	partMode map[string]bool
}

func newMapFrame(target *Value, isRoot bool, currentKey string) *mapFrame {
	return &mapFrame{
		target:       target,
		isRoot:       isRoot,
		currentKey:   currentKey,
		writable:     true,
		keyPolicies:  make(map[string]KeyPolicy),
		keyFinalized: make(map[string]bool),
		keyVoided:    make(map[string]bool),
		partMode:     make(map[string]bool),
	}
}

func (f *mapFrame) value() *Value    { return f.target }
func (f *mapFrame) hasSlot() bool    { return f.currentKey != "" }
func (f *mapFrame) poppable() bool   { return !f.isRoot }
func (f *mapFrame) slot() *Value {
	v, _ := f.target.m.Get(f.currentKey)
	return v
}
func (f *mapFrame) setSlot(v *Value) {
	f.target.m.Set(f.currentKey, v)
}
func (f *mapFrame) fresh() bool     { return f.isFresh }
func (f *mapFrame) setFresh(v bool) { f.isFresh = v }

// sequenceFrame is a stack entry for an open Sequence scope.
type sequenceFrame struct {
	target *Value // Kind() == KindSequence

	currentIndex int
	hasCurrent   bool
	writable     bool
	isFresh      bool

	// partElems marks indices whose value is a Sequence produced by
	// `p`, mirroring mapFrame.partMode.
	partElems map[int]bool

	// voidedIdx mirrors mapFrame.keyVoided for sequence elements.
	voidedIdx map[int]bool
}

func (f *sequenceFrame) voided(idx int) bool { return f.voidedIdx[idx] }
func (f *sequenceFrame) setVoided(idx int)   { f.voidedIdx[idx] = true }

func newSequenceFrame(target *Value) *sequenceFrame {
	return &sequenceFrame{
		target:       target,
		currentIndex: -1,
		partElems:    make(map[int]bool),
		voidedIdx:    make(map[int]bool),
	}
}

func (f *sequenceFrame) value() *Value  { return f.target }
func (f *sequenceFrame) hasSlot() bool  { return f.hasCurrent }
func (f *sequenceFrame) poppable() bool { return true }
func (f *sequenceFrame) slot() *Value   { return f.target.seq[f.currentIndex] }
func (f *sequenceFrame) setSlot(v *Value) {
	f.target.seq[f.currentIndex] = v
}
func (f *sequenceFrame) fresh() bool     { return f.isFresh }
func (f *sequenceFrame) setFresh(v bool) { f.isFresh = v }

// isEmptySlot reports whether v counts as "nothing written yet" for
// the purposes of the o/a open-vs-close decision. collapseWhitespace
// additionally treats whitespace-only Text as empty (Options.
// CollapseObjectStartWhitespace, honored only for `o`).
func isEmptySlot(v *Value, collapseWhitespace bool) bool {
	switch v.Kind() {
	case KindNull:
		return true
	case KindText:
		t, _ := v.RawText()
		if t == "" {
			return true
		}
		return collapseWhitespace && strings.TrimSpace(t) == ""
	default:
		return false
	}
}
