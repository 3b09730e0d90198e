package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jayfoss/ASLAN/internal/lexer"
)

func collect(t *testing.T, chunks ...string) []lexer.Token {
	t.Helper()
	l := lexer.New()
	var toks []lexer.Token
	emit := func(tok lexer.Token) { toks = append(toks, tok) }
	for _, c := range chunks {
		l.Feed([]byte(c), emit)
	}
	l.Finish(emit)
	return toks
}

func TestLexer_PlainText(t *testing.T) {
	toks := collect(t, "hello world")
	require.Equal(t, []lexer.Token{
		{Kind: lexer.Text, Literal: "hello world"},
	}, toks)
}

func TestLexer_SimpleDelimiter(t *testing.T) {
	toks := collect(t, "[aslang]")
	require.Equal(t, []lexer.Token{
		{Kind: lexer.Delim, DelimKind: 'g'},
	}, toks)
}

func TestLexer_DelimiterWithLabel(t *testing.T) {
	toks := collect(t, "[asland_hi]")
	require.Equal(t, []lexer.Token{
		{Kind: lexer.Delim, DelimKind: 'd', Label: "hi"},
	}, toks)
}

func TestLexer_DelimiterWithLabelAndArg(t *testing.T) {
	toks := collect(t, "[asland_hi:f]")
	require.Equal(t, []lexer.Token{
		{Kind: lexer.Delim, DelimKind: 'd', Label: "hi", Arg: "f"},
	}, toks)
}

func TestLexer_TextAndDelimiterMix(t *testing.T) {
	toks := collect(t, "before[asland_a]middle[aslano]after")
	require.Equal(t, []lexer.Token{
		{Kind: lexer.Text, Literal: "before"},
		{Kind: lexer.Delim, DelimKind: 'd', Label: "a"},
		{Kind: lexer.Text, Literal: "middle"},
		{Kind: lexer.Delim, DelimKind: 'o'},
		{Kind: lexer.Text, Literal: "after"},
	}, toks)
}

func TestLexer_InvalidKindIsLiteral(t *testing.T) {
	toks := collect(t, "[aslanz]")
	require.Equal(t, []lexer.Token{
		{Kind: lexer.Text, Literal: "[aslanz]"},
	}, toks)
}

func TestLexer_InvalidKindReportsToDiagnosticHook(t *testing.T) {
	l := lexer.New()
	var got []byte
	l.OnInvalidKind(func(kind byte) { got = append(got, kind) })
	var toks []lexer.Token
	l.Feed([]byte("before[aslanz]after"), func(tok lexer.Token) { toks = append(toks, tok) })
	l.Finish(func(tok lexer.Token) { toks = append(toks, tok) })

	require.Equal(t, []byte{'z'}, got)
	require.Equal(t, []lexer.Token{
		{Kind: lexer.Text, Literal: "before[aslanz]after"},
	}, toks)
}

func TestLexer_InEscapeReflectsOpenEscapeWindow(t *testing.T) {
	l := lexer.New()
	require.False(t, l.InEscape())
	l.Feed([]byte("[aslane_x]unterminated"), func(lexer.Token) {})
	require.True(t, l.InEscape())
}

func TestLexer_UnterminatedDelimiterAtEOFIsLiteral(t *testing.T) {
	toks := collect(t, "text[asland_a")
	require.Equal(t, []lexer.Token{
		{Kind: lexer.Text, Literal: "text"},
		{Kind: lexer.Text, Literal: "[asland_a"},
	}, toks)
}

func TestLexer_DelimiterSplitAcrossFeedCalls(t *testing.T) {
	toks := collect(t, "x[asla", "nd_a]y")
	require.Equal(t, []lexer.Token{
		{Kind: lexer.Text, Literal: "x"},
		{Kind: lexer.Delim, DelimKind: 'd', Label: "a"},
		{Kind: lexer.Text, Literal: "y"},
	}, toks)
}

func TestLexer_LabelSplitAcrossFeedCalls(t *testing.T) {
	toks := collect(t, "[asland_hi", ":f]z")
	require.Equal(t, []lexer.Token{
		{Kind: lexer.Delim, DelimKind: 'd', Label: "hi", Arg: "f"},
		{Kind: lexer.Text, Literal: "z"},
	}, toks)
}

func TestLexer_EscapeWindowHidesDelimiterShapedText(t *testing.T) {
	toks := collect(t, "[aslane_x]looks[aslano]like[aslane_x]tail")
	require.Equal(t, []lexer.Token{
		{Kind: lexer.Delim, DelimKind: 'e', Label: "x"},
		{Kind: lexer.Text, Literal: "looks[aslano]like"},
		{Kind: lexer.Delim, DelimKind: 'e', Label: "x"},
		{Kind: lexer.Text, Literal: "tail"},
	}, toks)
}

func TestLexer_EscapeWindowWithNoLabel(t *testing.T) {
	toks := collect(t, "[aslane]raw[aslane_]tail")
	require.Equal(t, []lexer.Token{
		{Kind: lexer.Delim, DelimKind: 'e'},
		{Kind: lexer.Text, Literal: "raw"},
		{Kind: lexer.Delim, DelimKind: 'e'},
		{Kind: lexer.Text, Literal: "tail"},
	}, toks)
}

func TestLexer_EscapeCloseSplitAcrossFeedCalls(t *testing.T) {
	toks := collect(t, "[aslane_x]abc[aslane", "_x]tail")
	require.Equal(t, []lexer.Token{
		{Kind: lexer.Delim, DelimKind: 'e', Label: "x"},
		{Kind: lexer.Text, Literal: "abc"},
		{Kind: lexer.Delim, DelimKind: 'e', Label: "x"},
		{Kind: lexer.Text, Literal: "tail"},
	}, toks)
}
