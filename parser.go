package aslan

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jayfoss/ASLAN/internal/diag"
	"github.com/jayfoss/ASLAN/internal/lexer"
)

// Parser turns a stream of ASLAN bytes into a Value tree. It is a
// single-pass state engine sitting on top of internal/lexer: the lexer
// only recognizes delimiter boundaries, while Parser owns the frame
// stack, the override lattice between scalar/Sequence/Map values, key
// policies, and document boundaries.
//
// Parse, Feed, and Finish never return an error: malformed or
// unexpected ASLAN degrades to a best-effort tree rather than failing,
// per the recoverable-condition list Options.Logger receives Debug
// records for.
type Parser struct {
	opts      Options
	lex       *lexer.Lexer
	logger    logrus.FieldLogger
	sessionID uuid.UUID
	bus       eventBus

	root  *Value
	stack []frame

	started bool
	ended   bool
	inComment bool

	docs []*Value
}

// New constructs a Parser with DefaultOptions overridden by opts.
func New(opts ...Option) *Parser {
	return NewWithOptions(DefaultOptions().apply(opts))
}

// NewWithOptions constructs a Parser from a fully assembled Options
// value, as produced by LoadOptionsYAML.
func NewWithOptions(o Options) *Parser {
	if o.DefaultFieldName == "" {
		o = o.apply(nil)
	}
	p := &Parser{
		opts:      o,
		lex:       lexer.New(),
		logger:    diag.Logger(o.Logger),
		sessionID: uuid.New(),
		started:   !o.StrictStart,
	}
	p.lex.OnInvalidKind(func(kind byte) {
		p.logger.WithField("kind", string(kind)).Debug("aslan: unrecognized delimiter kind, treated as literal text")
	})
	p.resetForNewDocument()
	return p
}

// Parse is a convenience wrapper around Feed followed by Finish for
// callers with the entire input in hand.
func (p *Parser) Parse(data []byte) *Value {
	p.Feed(data)
	return p.Finish()
}

// Feed consumes another chunk of input. It may be called any number of
// times before Finish; delimiters split across chunk boundaries are
// handled transparently by the underlying lexer.
func (p *Parser) Feed(data []byte) {
	p.lex.Feed(data, p.handleToken)
}

// Finish flushes any buffered partial delimiter as literal text,
// finalizes the in-progress document, and returns the result: a single
// Map Value normally, or a Sequence of per-document Map values when
// Options.MultiAslanOutput is set.
func (p *Parser) Finish() *Value {
	p.lex.Finish(p.handleToken)
	if p.lex.InEscape() {
		p.logger.Debug("aslan: escape window left open at EOF")
	}
	if p.inComment {
		p.logger.Debug("aslan: comment left open at EOF")
	}
	p.finalizeDocument()
	if p.opts.MultiAslanOutput {
		out := NewSequenceValue()
		out.seq = p.docs
		return out
	}
	return p.root
}

// AddEventListener registers fn to receive every Event this Parser
// emits from this point forward. The returned ListenerID can be passed
// to RemoveEventListener.
func (p *Parser) AddEventListener(fn func(Event)) ListenerID {
	return p.bus.add(fn)
}

// RemoveEventListener unregisters a listener previously returned by
// AddEventListener.
func (p *Parser) RemoveEventListener(id ListenerID) {
	p.bus.remove(id)
}

func (p *Parser) top() frame {
	return p.stack[len(p.stack)-1]
}

func (p *Parser) resetForNewDocument() {
	p.root = NewMapValue()
	p.root.m.Set(p.opts.DefaultFieldName, TextValue(""))
	p.stack = []frame{newMapFrame(p.root, true, p.opts.DefaultFieldName)}
	p.inComment = false
}

// handleToken is the single entry point every lexer.Token passes
// through: strict-start gating, strict-end gating, comment-mode
// suppression, document-boundary delimiters, then ordinary dispatch.
func (p *Parser) handleToken(tok lexer.Token) {
	if p.opts.StrictStart && !p.started {
		if tok.Kind == lexer.Delim && tok.DelimKind == 'g' {
			p.started = true
		}
		return
	}

	if p.ended {
		// Only reachable in single-document mode: strictEnd fired and
		// there is no further document boundary to reopen on, so
		// everything remaining is discarded through to EOF.
		return
	}

	if p.inComment {
		if tok.Kind == lexer.Delim && isStructuralKind(tok.DelimKind) {
			p.inComment = false
		} else {
			return
		}
	}

	if tok.Kind == lexer.Delim {
		switch tok.DelimKind {
		case 'g':
			if p.opts.MultiAslanOutput {
				p.finalizeDocument()
				p.resetForNewDocument()
			}
			return
		case 's':
			if !p.opts.StrictEnd {
				return
			}
			if p.opts.MultiAslanOutput {
				// Stop seals the in-progress document immediately; the
				// next document starts admitting content right away
				// unless strictStart requires a fresh `g` to unlock
				// it, matching how content between a stop and the
				// following go is discarded when strictStart is set.
				p.finalizeDocument()
				p.resetForNewDocument()
				p.started = !p.opts.StrictStart
			} else {
				p.ended = true
			}
			return
		}
	}

	p.dispatch(tok)
}

func isStructuralKind(b byte) bool {
	return strings.IndexByte(lexer.StructuralKinds, b) >= 0
}

func (p *Parser) dispatch(tok lexer.Token) {
	if tok.Kind == lexer.Text {
		p.appendLiteral(tok.Literal)
		return
	}
	switch tok.DelimKind {
	case 'd':
		p.handleD(tok.Label, tok.Arg)
	case 'o':
		p.handleToggle(KindMap, tok.Arg)
	case 'a':
		p.handleToggle(KindSequence, tok.Arg)
	case 'p':
		p.handlePart()
	case 'v':
		p.handleVoid()
	case 'i':
		p.handleInstruction(tok.Label, tok.Arg)
	case 'c':
		p.inComment = true
	case 'e':
		// Escape windows are fully handled by the lexer; their content
		// arrives here as ordinary Text tokens. The enter/exit marker
		// itself has no tree effect.
	}
}

// finalizeDocument applies the default-field rule, fires the end-of-
// document Event wave, and — in multi-document mode — appends the
// finished root to the accumulated document list.
func (p *Parser) finalizeDocument() {
	p.finalizeDefaultField()
	p.emitEndsAll()
	if p.opts.MultiAslanOutput {
		p.docs = append(p.docs, p.root)
	}
}

// finalizeDefaultField converts the default field from an untouched
// empty Text placeholder to explicit Null, but only once some other
// field has actually been written. An input that never contains a
// recognized `d` for any field (including one that is entirely empty)
// keeps its default field as Text, even if that text is "" — only the
// presence of a sibling key makes the bare-empty-default case "no
// leading content was ever given" rather than "no content at all".
func (p *Parser) finalizeDefaultField() {
	name := p.opts.DefaultFieldName
	v, ok := p.root.m.Get(name)
	if !ok || !v.IsText() {
		return
	}
	if t, _ := v.RawText(); t != "" {
		return
	}
	if p.root.m.Len() > 1 {
		p.root.m.Set(name, NullValue())
	}
}

// --- d: data ---------------------------------------------------------

func (p *Parser) handleD(label, arg string) {
	switch f := p.top().(type) {
	case *mapFrame:
		p.handleDMap(f, label, arg)
	case *sequenceFrame:
		p.handleDSeq(f, label)
	}
}

func (p *Parser) handleDMap(f *mapFrame, key, arg string) {
	if key == "" {
		return
	}

	if f.currentKey != "" && f.currentKey != key {
		p.finalizeKeyIfFirst(f, f.currentKey)
		p.emitEndDataForCurrent()
	}

	_, seenBefore := f.keyPolicies[key]
	if !seenBefore {
		f.keyPolicies[key] = keyPolicyFromArg(arg)
		if _, ok := f.target.m.Get(key); !ok {
			f.target.m.Set(key, TextValue(""))
		}
	}

	switch f.keyPolicies[key] {
	case PolicyFirst:
		if seenBefore {
			f.keyFinalized[key] = true
		}
		f.writable = !f.keyFinalized[key]
	case PolicyLast:
		if cur, _ := f.target.m.Get(key); cur == nil || cur.IsText() || cur.IsNull() {
			f.target.m.Set(key, TextValue(""))
		}
		delete(f.keyVoided, key)
		delete(f.partMode, key)
		f.writable = true
	default: // PolicyAppend
		if cur, _ := f.target.m.Get(key); cur != nil && cur.IsText() {
			if t, _ := cur.RawText(); t != "" {
				f.pendingSeparator = true
			}
		}
		f.writable = true
	}

	f.currentKey = key
	f.isFresh = seenBefore
}

func (p *Parser) handleDSeq(f *sequenceFrame, label string) {
	if label == "" {
		p.appendSeqElement(f)
		return
	}
	idx, err := strconv.Atoi(label)
	if err != nil || idx < 0 {
		p.appendSeqElement(f)
		return
	}
	for len(f.target.seq) <= idx {
		f.target.seq = append(f.target.seq, NullValue())
	}
	seenBefore := !f.target.seq[idx].IsNull()
	if !seenBefore {
		f.target.seq[idx] = TextValue("")
	}
	p.selectSeqIndex(f, idx)
	f.isFresh = seenBefore
}

func (p *Parser) appendSeqElement(f *sequenceFrame) {
	f.target.seq = append(f.target.seq, TextValue(""))
	p.selectSeqIndex(f, len(f.target.seq)-1)
	f.isFresh = false
}

func (p *Parser) selectSeqIndex(f *sequenceFrame, idx int) {
	if f.hasCurrent && f.currentIndex != idx {
		p.emitEndDataForCurrent()
	}
	f.currentIndex = idx
	f.hasCurrent = true
	f.writable = true
}

func (p *Parser) finalizeKeyIfFirst(f *mapFrame, key string) {
	if f.keyPolicies[key] == PolicyFirst {
		f.keyFinalized[key] = true
	}
}

// --- literal content ---------------------------------------------------

func (p *Parser) appendLiteral(s string) {
	if s == "" {
		return
	}
	switch f := p.top().(type) {
	case *mapFrame:
		p.appendLiteralMap(f, s)
	case *sequenceFrame:
		p.appendLiteralSeq(f, s)
	}
}

func (p *Parser) appendLiteralMap(f *mapFrame, s string) {
	key := f.currentKey
	if key == "" || !f.writable || f.keyVoided[key] {
		return
	}
	cur, ok := f.target.m.Get(key)
	if !ok || cur == nil {
		cur = TextValue("")
		f.target.m.Set(key, cur)
	}

	if f.partMode[key] {
		if cur.Kind() != KindSequence || len(cur.seq) == 0 {
			return
		}
		last := cur.seq[len(cur.seq)-1]
		if !last.IsText() {
			return
		}
		t, _ := last.RawText()
		last.text = t + s
		p.emitContent(last, true)
		return
	}

	if cur.IsSequence() || cur.IsMap() {
		return
	}

	base := ""
	wasNonEmpty := false
	if cur.IsText() {
		base, _ = cur.RawText()
		wasNonEmpty = base != ""
	}
	if f.pendingSeparator && wasNonEmpty {
		base += p.opts.AppendSeparator
	}
	f.pendingSeparator = false
	nv := TextValue(base + s)
	f.target.m.Set(key, nv)
	p.emitContent(nv, wasNonEmpty)
}

func (p *Parser) appendLiteralSeq(f *sequenceFrame, s string) {
	if !f.hasCurrent || !f.writable || f.voided(f.currentIndex) {
		return
	}
	idx := f.currentIndex
	cur := f.target.seq[idx]

	if f.partElems[idx] {
		if cur.Kind() != KindSequence || len(cur.seq) == 0 {
			return
		}
		last := cur.seq[len(cur.seq)-1]
		if !last.IsText() {
			return
		}
		t, _ := last.RawText()
		last.text = t + s
		p.emitContent(last, true)
		return
	}

	if cur.IsSequence() || cur.IsMap() {
		return
	}

	base := ""
	wasNonEmpty := false
	if cur.IsText() {
		base, _ = cur.RawText()
		wasNonEmpty = base != ""
	}
	nv := TextValue(base + s)
	f.target.seq[idx] = nv
	p.emitContent(nv, wasNonEmpty)
}

// --- o / a: map and sequence toggles ------------------------------------

// handleToggle implements the unified open/reopen/close decision for
// both `o` (target == KindMap) and `a` (target == KindSequence),
// evaluated against the current frame's own selected key or element.
//
// The pivotal signal is fresh: whether the currently selected key or
// index is a RE-occurrence, i.e. it already existed the last time a
// `d` named it, as opposed to being named by a `d` for the first time
// ever. A key's first-ever `d` just establishes it at its zero value;
// only a later `d` that names it again is a deliberate re-selection,
// and only that re-selection licenses an `o`/`a` to blow away what is
// already there.
//
//   - a non-root frame with nothing selected yet closes outright.
//   - a fresh (re-occurring) slot already holding the SAME kind is
//     reopened: replaced with a brand-new empty container and pushed.
//     A slot that holds the same kind only because control returned
//     here from a child close, with no intervening re-selecting `d`,
//     is NOT reopened — it falls through to the ordinary empty/
//     non-empty decision below, which closes it (see maxObjectDepth's
//     depth-2 nesting case: re-entering a parent after its child
//     closed must not wipe that child).
//   - `a` always overrides a Map slot (Sequence beats Map).
//   - `o` never overrides a Sequence slot, except at the document
//     root, which always opens regardless of the slot's prior content.
//   - at the document root, a fresh (re-occurring) slot forces an
//     open even when its kind doesn't match target — a plain string
//     re-selected by its own key is deliberately being promoted to a
//     container. A key's first-ever selection never does this: root
//     can't close (nothing to pop), so a first-time non-empty scalar
//     there is left alone.
//   - otherwise: Null/empty scalar opens; non-empty scalar closes the
//     current frame (a no-op when the frame isn't poppable).
func (p *Parser) handleToggle(target Kind, _ string) {
	f := p.top()

	if f.poppable() && !f.hasSlot() {
		p.closeCurrent()
		return
	}

	if mf, ok := f.(*mapFrame); ok && target == KindMap && p.opts.MaxObjectDepth != nil {
		if p.mapDepth() >= *p.opts.MaxObjectDepth {
			p.logger.WithField("maxObjectDepth", *p.opts.MaxObjectDepth).Debug("aslan: max object depth reached, closing instead of nesting")
			if mf.poppable() {
				p.closeCurrent()
			}
			return
		}
	}

	v := f.slot()
	fresh := f.fresh()
	f.setFresh(false)

	switch {
	case v.Kind() == target && fresh:
		p.openNew(f, target)
	case target == KindSequence && v.IsMap():
		p.openNew(f, target)
	case target == KindMap && v.IsSequence():
		if !f.poppable() {
			p.openNew(f, target)
		}
	case !f.poppable() && fresh:
		p.openNew(f, target)
	case isEmptySlot(v, target == KindMap && p.opts.CollapseObjectStartWhitespace):
		p.openNew(f, target)
	default:
		p.closeCurrent()
	}
}

func (p *Parser) openNew(f frame, target Kind) {
	p.emitEndDataForCurrent()

	var nv *Value
	if target == KindMap {
		nv = NewMapValue()
	} else {
		nv = NewSequenceValue()
	}
	f.setSlot(nv)

	switch t := f.(type) {
	case *mapFrame:
		delete(t.partMode, t.currentKey)
		delete(t.keyVoided, t.currentKey)
	case *sequenceFrame:
		delete(t.partElems, t.currentIndex)
	}

	if target == KindMap {
		p.stack = append(p.stack, newMapFrame(nv, false, ""))
	} else {
		p.stack = append(p.stack, newSequenceFrame(nv))
	}
}

func (p *Parser) closeCurrent() {
	f := p.top()
	if !f.poppable() {
		return
	}
	if mf, ok := f.(*mapFrame); ok {
		p.finalizeKeyIfFirst(mf, mf.currentKey)
	}
	p.bus.emit(Event{SessionID: p.sessionID, Kind: EventEnd, Path: p.buildPath(), Value: f.value()})
	p.popFrame()
}

func (p *Parser) popFrame() {
	if len(p.stack) <= 1 {
		return
	}
	p.stack = p.stack[:len(p.stack)-1]
}

func (p *Parser) mapDepth() int {
	depth := -1
	for _, fr := range p.stack {
		if _, ok := fr.(*mapFrame); ok {
			depth++
		}
	}
	return depth
}

// --- p: part -------------------------------------------------------------

func (p *Parser) handlePart() {
	switch f := p.top().(type) {
	case *mapFrame:
		p.partMap(f)
	case *sequenceFrame:
		p.partSeq(f)
	}
}

func (p *Parser) partMap(f *mapFrame) {
	key := f.currentKey
	if key == "" {
		return
	}
	cur, _ := f.target.m.Get(key)
	seq := promoteToSequence(cur)
	if cur == nil || !cur.IsSequence() {
		f.target.m.Set(key, seq)
	}
	seq.seq = append(seq.seq, TextValue(""))
	f.partMode[key] = true
	f.writable = true
}

func (p *Parser) partSeq(f *sequenceFrame) {
	if !f.hasCurrent {
		return
	}
	idx := f.currentIndex
	cur := f.target.seq[idx]
	seq := promoteToSequence(cur)
	if !cur.IsSequence() {
		f.target.seq[idx] = seq
	}
	seq.seq = append(seq.seq, TextValue(""))
	f.partElems[idx] = true
	f.writable = true
}

// promoteToSequence returns v itself if it is already a Sequence,
// otherwise a new Sequence carrying v's non-empty text as its first
// element (an empty or Null v contributes no leading element).
func promoteToSequence(v *Value) *Value {
	if v.IsSequence() {
		return v
	}
	seq := NewSequenceValue()
	if v.IsText() {
		if t, _ := v.RawText(); t != "" {
			seq.seq = append(seq.seq, TextValue(t))
		}
	}
	return seq
}

// --- v: void ---------------------------------------------------------------

func (p *Parser) handleVoid() {
	switch f := p.top().(type) {
	case *mapFrame:
		key := f.currentKey
		if key == "" {
			return
		}
		f.target.m.Set(key, NullValue())
		f.keyVoided[key] = true
		p.emitContent(NullValue(), false)
	case *sequenceFrame:
		if !f.hasCurrent {
			return
		}
		f.target.seq[f.currentIndex] = NullValue()
		f.setVoided(f.currentIndex)
		p.emitContent(NullValue(), false)
	}
}

// --- i: instruction ----------------------------------------------------

// handleInstruction handles an `i` delimiter. Instructions never touch
// the value tree and emit no Event; the label and arg are only logged
// at Debug level through Options.Logger.
func (p *Parser) handleInstruction(label, arg string) {
	p.logger.WithField("label", label).WithField("arg", arg).Debug("aslan: instruction")
}

// --- events --------------------------------------------------------------

func (p *Parser) buildPath() []PathSegment {
	return p.pathUpTo(len(p.stack) - 1)
}

func (p *Parser) pathUpTo(last int) []PathSegment {
	segs := make([]PathSegment, 0, last+1)
	for i := 0; i <= last; i++ {
		switch t := p.stack[i].(type) {
		case *mapFrame:
			if t.currentKey != "" {
				segs = append(segs, PathSegment{Key: t.currentKey})
			}
		case *sequenceFrame:
			if t.hasCurrent {
				segs = append(segs, PathSegment{Index: t.currentIndex, IsIndex: true})
			}
		}
	}
	return segs
}

func (p *Parser) emitContent(v *Value, appended bool) {
	p.bus.emit(Event{SessionID: p.sessionID, Kind: EventContent, Path: p.buildPath(), Value: v, Appended: appended})
}

func (p *Parser) emitEndDataForCurrent() {
	switch t := p.top().(type) {
	case *mapFrame:
		if t.currentKey == "" {
			return
		}
		v, _ := t.target.m.Get(t.currentKey)
		p.bus.emit(Event{SessionID: p.sessionID, Kind: EventEndData, Path: p.buildPath(), Value: v})
	case *sequenceFrame:
		if !t.hasCurrent {
			return
		}
		p.bus.emit(Event{SessionID: p.sessionID, Kind: EventEndData, Path: p.buildPath(), Value: t.target.seq[t.currentIndex]})
	}
}

func (p *Parser) emitEndsAll() {
	for i := len(p.stack) - 1; i >= 0; i-- {
		p.bus.emit(Event{SessionID: p.sessionID, Kind: EventEnd, Path: p.pathUpTo(i), Value: p.stack[i].value()})
	}
}
