// Package options parses and merges tool option strings.
//
// An option string is a sequence of fragments separated by a marker (default "--").
// Each fragment is either a key/value pair ("width 800", "out=file.pdb") or a bare
// flag ("verbose"). ParseQuoted and MergeQuoted additionally keep separators
// inside single or double quotes.
package options

import (
	"strings"
	"unicode"
)

// DefaultSeparator is the fragment marker used when none is given.
const DefaultSeparator = "--"

// Options is an ordered set of key/value pairs plus an ordered set of flags.
// Insertion order is kept so rendering is deterministic.
type Options struct {
	keys   []string
	values map[string]string
	flags  []string
	isFlag map[string]bool
}

// New returns an empty Options.
func New() *Options {
	return &Options{values: make(map[string]string), isFlag: make(map[string]bool)}
}

// Parse splits s on sep and classifies each fragment. An empty string yields an
// empty Options. An empty sep means DefaultSeparator.
func Parse(s, sep string) *Options {
	if sep == "" {
		sep = DefaultSeparator
	}
	return classify(strings.Split(s, sep))
}

// ParseQuoted is Parse for tools whose values may contain the separator inside
// quotes. When the quotes in s are unbalanced it splits like Parse.
func ParseQuoted(s, sep string) *Options {
	if sep == "" {
		sep = DefaultSeparator
	}
	parts, ok := splitQuoted(s, sep)
	if !ok {
		parts = strings.Split(s, sep)
	}
	return classify(parts)
}

func classify(fragments []string) *Options {
	o := New()
	for _, fragment := range fragments {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		if i := strings.IndexFunc(fragment, unicode.IsSpace); i > 0 {
			o.Set(fragment[:i], strings.TrimSpace(fragment[i:]))
			continue
		}
		if key, value, ok := strings.Cut(fragment, "="); ok {
			o.Set(key, value)
			continue
		}
		o.AddFlag(fragment)
	}
	return o
}

// Merge parses generic and override independently and combines them. Keys of the
// override win; flags are the union of both.
func Merge(generic, override, sep string) *Options {
	merged := Parse(generic, sep)
	merged.Update(Parse(override, sep))
	return merged
}

// MergeQuoted is Merge on top of ParseQuoted.
func MergeQuoted(generic, override, sep string) *Options {
	merged := ParseQuoted(generic, sep)
	merged.Update(ParseQuoted(override, sep))
	return merged
}

// Set assigns a value, keeping the key's original position when it already exists.
func (o *Options) Set(key, value string) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// AddFlag adds a flag. Adding a flag twice has no effect.
func (o *Options) AddFlag(flag string) {
	if o.isFlag[flag] {
		return
	}
	o.isFlag[flag] = true
	o.flags = append(o.flags, flag)
}

// Update merges other into o; values of other win.
func (o *Options) Update(other *Options) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		o.Set(k, other.values[k])
	}
	for _, f := range other.flags {
		o.AddFlag(f)
	}
}

// Get returns the value of key.
func (o *Options) Get(key string) (string, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Delete removes a key.
func (o *Options) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// HasFlag reports whether flag is set.
func (o *Options) HasFlag(flag string) bool { return o.isFlag[flag] }

// Keys returns keys in insertion order.
func (o *Options) Keys() []string { return append([]string(nil), o.keys...) }

// Flags returns flags in insertion order.
func (o *Options) Flags() []string { return append([]string(nil), o.flags...) }

// Map returns a copy of the key/value pairs.
func (o *Options) Map() map[string]string {
	out := make(map[string]string, len(o.values))
	for k, v := range o.values {
		out[k] = v
	}
	return out
}

// Len returns the number of keys plus the number of flags.
func (o *Options) Len() int { return len(o.keys) + len(o.flags) }

// Render formats the options as a command line fragment. Each key is written as
// keyPrefix + key + assign + value, each flag as keyPrefix + flag, keys first.
//
//	Render("-", " ")  -> "-nstruct 5 -overwrite"
//	Render("--", "=") -> "--out=file --verbose"
//	Render("", "=")   -> "inference.num_designs=3"
func (o *Options) Render(keyPrefix, assign string) string {
	parts := make([]string, 0, o.Len())
	for _, k := range o.keys {
		parts = append(parts, keyPrefix+k+assign+o.values[k])
	}
	for _, f := range o.flags {
		parts = append(parts, keyPrefix+f)
	}
	return strings.Join(parts, " ")
}

// String renders with the default separator and a space between key and value.
func (o *Options) String() string { return o.Render(DefaultSeparator, " ") }

// splitQuoted splits s on sep, ignoring occurrences inside single or double quotes.
// ok is false when a quote is left open.
func splitQuoted(s, sep string) (parts []string, ok bool) {
	var (
		cur   strings.Builder
		quote rune
	)
	for i := 0; i < len(s); {
		c := rune(s[i])
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case strings.HasPrefix(s[i:], sep):
			parts = append(parts, cur.String())
			cur.Reset()
			i += len(sep)
			continue
		}
		cur.WriteByte(s[i])
		i++
	}
	return append(parts, cur.String()), quote == 0
}
