package aslan

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// KeyPolicy selects how a repeated `d` delimiter for the same map key is
// handled.
type KeyPolicy byte

const (
	// PolicyAppend concatenates successive segments (the default).
	PolicyAppend KeyPolicy = 'a'
	// PolicyFirst keeps the first occurrence and discards the rest.
	PolicyFirst KeyPolicy = 'f'
	// PolicyLast replaces the value on every new occurrence.
	PolicyLast KeyPolicy = 'l'
)

func keyPolicyFromArg(arg string) KeyPolicy {
	switch arg {
	case "f":
		return PolicyFirst
	case "l":
		return PolicyLast
	default:
		return PolicyAppend
	}
}

// Options configures a Parser. Construct one with DefaultOptions and
// override individual fields, or decode one with LoadOptionsYAML. An
// empty DefaultFieldName (as in the zero value) is replaced by
// "_default" when a Parser is constructed.
type Options struct {
	DefaultFieldName              string `yaml:"defaultFieldName"`
	AppendSeparator                string `yaml:"appendSeparator"`
	StrictStart                   bool   `yaml:"strictStart"`
	StrictEnd                     bool   `yaml:"strictEnd"`
	MultiAslanOutput              bool   `yaml:"multiAslanOutput"`
	CollapseObjectStartWhitespace bool   `yaml:"collapseObjectStartWhitespace"`

	// MaxObjectDepth caps map nesting depth when non-nil; at depth >=
	// *MaxObjectDepth, `o` always closes rather than opens. A value of
	// 0 disables map creation entirely.
	MaxObjectDepth *int `yaml:"maxObjectDepth"`

	// Logger receives Debug-level records for recoverable conditions
	// (an unrecognized delimiter kind, an escape or comment left open
	// at EOF, the depth cap being hit) and for each `i` instruction.
	// Never affects the parsed result. Defaults to a discarding logger.
	Logger logrus.FieldLogger `yaml:"-"`
}

// DefaultOptions returns the option set a bare Parser is constructed
// with.
func DefaultOptions() Options {
	return Options{
		DefaultFieldName: "_default",
	}
}

// Option mutates an Options value under construction, following the
// functional-options idiom layered on top of the plain Options struct.
type Option func(*Options)

// WithDefaultFieldName overrides the reserved root key name.
func WithDefaultFieldName(name string) Option {
	return func(o *Options) { o.DefaultFieldName = name }
}

// WithAppendSeparator sets the separator inserted between segments
// appended to the same append-policy key.
func WithAppendSeparator(sep string) Option {
	return func(o *Options) { o.AppendSeparator = sep }
}

// WithStrictStart enables discarding all content before the first `g`.
func WithStrictStart(enabled bool) Option {
	return func(o *Options) { o.StrictStart = enabled }
}

// WithStrictEnd enables discarding content after `s` until the next `g`
// (multi-document mode) or end of input.
func WithStrictEnd(enabled bool) Option {
	return func(o *Options) { o.StrictEnd = enabled }
}

// WithMultiAslanOutput makes the parser produce a Sequence of root
// documents, one per `g`-delimited section.
func WithMultiAslanOutput(enabled bool) Option {
	return func(o *Options) { o.MultiAslanOutput = enabled }
}

// WithCollapseObjectStartWhitespace treats leading whitespace in a map
// slot as emptiness when an `o` decides whether to open or close.
func WithCollapseObjectStartWhitespace(enabled bool) Option {
	return func(o *Options) { o.CollapseObjectStartWhitespace = enabled }
}

// WithMaxObjectDepth caps map nesting depth.
func WithMaxObjectDepth(depth int) Option {
	return func(o *Options) { o.MaxObjectDepth = &depth }
}

// WithLogger attaches a logrus.FieldLogger for diagnostic records.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Options) { o.Logger = l }
}

func (o Options) apply(opts []Option) Options {
	for _, fn := range opts {
		fn(&o)
	}
	if o.DefaultFieldName == "" {
		o.DefaultFieldName = "_default"
	}
	return o
}

// optionsFile mirrors Options for YAML decoding; MaxObjectDepth is a
// pointer so that an absent key (nil) stays distinguishable from an
// explicit 0, which a bare int field could not express.
type optionsFile struct {
	DefaultFieldName              string `yaml:"defaultFieldName"`
	AppendSeparator               string `yaml:"appendSeparator"`
	StrictStart                   bool   `yaml:"strictStart"`
	StrictEnd                     bool   `yaml:"strictEnd"`
	MultiAslanOutput              bool   `yaml:"multiAslanOutput"`
	CollapseObjectStartWhitespace bool   `yaml:"collapseObjectStartWhitespace"`
	MaxObjectDepth                *int   `yaml:"maxObjectDepth"`
}

// LoadOptionsYAML decodes a YAML document into an Options value,
// starting from DefaultOptions so omitted fields keep their defaults.
// This is the one place Parse/Feed/Finish's "never returns an error for
// malformed ASLAN" rule does not apply: a malformed options document is
// a usage error, not ASLAN input, and is reported as such.
func LoadOptionsYAML(data []byte) (Options, error) {
	var f optionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Options{}, err
	}
	out := DefaultOptions()
	if f.DefaultFieldName != "" {
		out.DefaultFieldName = f.DefaultFieldName
	}
	out.AppendSeparator = f.AppendSeparator
	out.StrictStart = f.StrictStart
	out.StrictEnd = f.StrictEnd
	out.MultiAslanOutput = f.MultiAslanOutput
	out.CollapseObjectStartWhitespace = f.CollapseObjectStartWhitespace
	out.MaxObjectDepth = f.MaxObjectDepth
	return out, nil
}
