package lexer

const prefix = "[aslan"

type matchStatus int

const (
	matchFail matchStatus = iota
	matchNeedMore
	matchComplete
	matchInvalidKind
)

// Lexer is a streaming, single-pass delimiter recognizer. It owns no
// knowledge of the value tree; it only turns a byte stream into a
// sequence of Text and Delim tokens, handling escape windows and
// chunk-boundary splits along the way.
type Lexer struct {
	pending       []byte
	inEscape      bool
	escapeLabel   string
	onInvalidKind func(kind byte)
}

// New returns a Lexer ready to accept its first Feed call.
func New() *Lexer {
	return &Lexer{}
}

// OnInvalidKind registers fn to be called with the kind byte whenever
// input matches the "[aslan" prefix but names a kind byte outside
// ValidKinds, just before that input falls back to literal text. Purely
// a diagnostic hook; it never changes recognition behavior. Optional,
// nil by default.
func (l *Lexer) OnInvalidKind(fn func(kind byte)) {
	l.onInvalidKind = fn
}

// InEscape reports whether the lexer is currently inside an escape
// window (a `[aslane...]` that has not yet been closed by its matching
// close tag). Used by callers to detect an escape window left open at
// EOF.
func (l *Lexer) InEscape() bool {
	return l.inEscape
}

// Feed scans data (appended to any carried-over partial match) and
// invokes emit for every complete token recognized. Bytes that might
// still be the start of a delimiter or an escape close tag are held
// back in an internal buffer until the next Feed or Finish call.
func (l *Lexer) Feed(data []byte, emit func(Token)) {
	buf := data
	if len(l.pending) > 0 {
		buf = make([]byte, 0, len(l.pending)+len(data))
		buf = append(buf, l.pending...)
		buf = append(buf, data...)
		l.pending = nil
	}

	var run []byte
	flush := func() {
		if len(run) > 0 {
			emit(Token{Kind: Text, Literal: string(run)})
			run = nil
		}
	}

	i := 0
	for i < len(buf) {
		if l.inEscape {
			if buf[i] != '[' {
				run = append(run, buf[i])
				i++
				continue
			}
			consumed, status := l.matchEscapeClose(buf[i:])
			switch status {
			case matchComplete:
				flush()
				emit(Token{Kind: Delim, DelimKind: 'e', Label: l.escapeLabel})
				l.inEscape = false
				l.escapeLabel = ""
				i += consumed
			case matchNeedMore:
				flush()
				l.pending = append([]byte{}, buf[i:]...)
				return
			default:
				run = append(run, buf[i])
				i++
			}
			continue
		}

		if buf[i] != '[' {
			run = append(run, buf[i])
			i++
			continue
		}

		tok, consumed, status := matchDelimiter(buf[i:])
		switch status {
		case matchComplete:
			flush()
			emit(tok)
			i += consumed
			if tok.DelimKind == 'e' {
				l.inEscape = true
				l.escapeLabel = tok.Label
			}
		case matchNeedMore:
			flush()
			l.pending = append([]byte{}, buf[i:]...)
			return
		case matchInvalidKind:
			if l.onInvalidKind != nil {
				l.onInvalidKind(tok.DelimKind)
			}
			run = append(run, buf[i])
			i++
		default:
			run = append(run, buf[i])
			i++
		}
	}
	flush()
}

// Finish flushes any buffered partial match as literal text. Per the
// recognition rule, a delimiter or escape-close tag that never
// completed is not a delimiter at all — its bytes were always literal
// content, just not yet known to be so.
func (l *Lexer) Finish(emit func(Token)) {
	if len(l.pending) > 0 {
		emit(Token{Kind: Text, Literal: string(l.pending)})
		l.pending = nil
	}
}

// matchEscapeClose looks for the exact sequence "[aslane_LABEL]" at the
// start of s, where LABEL is the currently active escape label.
func (l *Lexer) matchEscapeClose(s []byte) (int, matchStatus) {
	closeTag := "[aslane_" + l.escapeLabel + "]"
	n := len(closeTag)
	if len(s) >= n {
		if string(s[:n]) == closeTag {
			return n, matchComplete
		}
		return 0, matchFail
	}
	if string(s) == closeTag[:len(s)] {
		return 0, matchNeedMore
	}
	return 0, matchFail
}

// matchDelimiter attempts to parse a full `[aslan<kind><suffix>?]`
// delimiter starting at s[0] == '['. It reports how many bytes of s
// were consumed and whether the match is complete, still pending more
// input, has definitively failed (meaning s[0] is literal), or matched
// the "[aslan" prefix with an unrecognized kind byte (also literal,
// but worth a diagnostic).
func matchDelimiter(s []byte) (Token, int, matchStatus) {
	n := len(prefix)
	if len(s) < n {
		if string(s) == prefix[:len(s)] {
			return Token{}, 0, matchNeedMore
		}
		return Token{}, 0, matchFail
	}
	if string(s[:n]) != prefix {
		return Token{}, 0, matchFail
	}
	if len(s) < n+1 {
		return Token{}, 0, matchNeedMore
	}
	kind := s[n]
	if !isValidKind(kind) {
		return Token{DelimKind: kind}, 0, matchInvalidKind
	}
	pos := n + 1

	var label, arg string
	if pos < len(s) && s[pos] == '_' {
		pos++
		labelStart := pos
		for pos < len(s) && isLabelByte(s[pos]) {
			pos++
		}
		if pos >= len(s) {
			return Token{}, 0, matchNeedMore
		}
		label = string(s[labelStart:pos])
		if s[pos] == ':' {
			pos++
			argStart := pos
			for pos < len(s) && isLabelByte(s[pos]) {
				pos++
			}
			if pos >= len(s) {
				return Token{}, 0, matchNeedMore
			}
			arg = string(s[argStart:pos])
		}
	}

	if pos >= len(s) {
		return Token{}, 0, matchNeedMore
	}
	if s[pos] != ']' {
		return Token{}, 0, matchFail
	}
	pos++

	return Token{Kind: Delim, DelimKind: kind, Label: label, Arg: arg}, pos, matchComplete
}
