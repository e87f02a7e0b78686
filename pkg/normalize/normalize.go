// Package normalize maps token text to canonical comparison keys.
//
// The variants form a closed set dispatched through an explicit registry:
// a method name is resolved exactly once, when the chain is built, never
// per call and never by evaluating caller-supplied code. Parameterized
// variants join their argument with a dash, e.g. "unicode-NFKC".
package normalize

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Func maps a single token to its comparison key. Implementations must be
// pure: no side effects, no state.
type Func func(string) string

// Chain applies a fixed cascade of normalization functions in order.
// It is immutable after construction, which is what makes lock-free
// concurrent use by the matcher safe.
type Chain struct {
	name string
	fns  []Func
}

// New resolves the named methods and returns their cascade.
// An empty name list yields the identity chain.
func New(names ...string) (Chain, error) {
	if len(names) == 0 {
		names = []string{"identity"}
	}
	fns := make([]Func, 0, len(names))
	for _, full := range names {
		method, arg, _ := strings.Cut(full, "-")
		builder, ok := registry[method]
		if !ok {
			return Chain{}, fmt.Errorf("%w: %q", ErrUnknownMethod, full)
		}
		fn, err := builder(arg)
		if err != nil {
			return Chain{}, fmt.Errorf("normalize: %q: %w", full, err)
		}
		fns = append(fns, fn)
	}
	return Chain{name: strings.Join(names, "+"), fns: fns}, nil
}

// MustNew is New, panicking on error. For fixed chains in tests and defaults.
func MustNew(names ...string) Chain {
	c, err := New(names...)
	if err != nil {
		panic(err)
	}
	return c
}

// Apply maps one token through the full cascade.
func (c Chain) Apply(token string) string {
	for _, fn := range c.fns {
		token = fn(token)
	}
	return token
}

// ApplyAll maps a token sequence to its key sequence.
func (c Chain) ApplyAll(tokens []string) []string {
	keys := make([]string, len(tokens))
	for i, tok := range tokens {
		keys[i] = c.Apply(tok)
	}
	return keys
}

// Name identifies the chain's configuration, e.g. "lowercase+greek".
// A dictionary records the name it was built with; the pipeline refuses to
// pair it with a matcher configured differently.
func (c Chain) Name() string {
	if c.name == "" {
		return "identity"
	}
	return c.name
}

type builderFunc func(arg string) (Func, error)

var registry = map[string]builderFunc{
	"identity":  func(string) (Func, error) { return func(s string) string { return s }, nil },
	"lowercase": func(string) (Func, error) { return strings.ToLower, nil },
	"unicode":   newUnicode,
	"greek":     func(string) (Func, error) { return greekTranslit, nil },
	"stem":      func(string) (Func, error) { return stem, nil },
	"mask":      func(string) (Func, error) { return mask, nil },
}

// Methods lists the registered method names, sorted.
func Methods() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func newUnicode(arg string) (Func, error) {
	forms := map[string]norm.Form{
		"":     norm.NFKC,
		"NFC":  norm.NFC,
		"NFD":  norm.NFD,
		"NFKC": norm.NFKC,
		"NFKD": norm.NFKD,
	}
	form, ok := forms[arg]
	if !ok {
		return nil, fmt.Errorf("unknown unicode form %q", arg)
	}
	return form.String, nil
}
