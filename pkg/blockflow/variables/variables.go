// Package variables resolves {Number}-style references in block prompts
// against the outputs of upstream blocks.
package variables

import "regexp"

// refPattern matches {Number} where Number is a display label such as
// "A01". Leading letter required so literal braces around numbers (e.g.
// "{3}") pass through untouched.
var refPattern = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9_-]*)\}`)

// Reference names one block reference found in a prompt template.
type Reference struct {
	// Name is the referenced block's display number.
	Name string `json:"name"`
}

// Resolver resolves and validates prompt templates.
//
// Both operations are pure: Resolve never fails for well-formed templates
// (how a missing variable renders is resolver policy), and Validate returns
// one Reference per name not present in the available set.
type Resolver interface {
	Resolve(template string, vars map[string]string) string
	Validate(template string, available []string) []Reference
}

// MissingAction controls how Resolve renders a reference with no value.
type MissingAction int

// Missing-variable policies.
const (
	// MissingEmpty renders unresolved references as the empty string.
	MissingEmpty MissingAction = iota
	// MissingKeep leaves unresolved references in place.
	MissingKeep
)

// Expander is the default Resolver implementation.
// Safe for concurrent use after construction.
type Expander struct {
	missingAction MissingAction
}

// Option configures an Expander.
type Option func(*Expander)

// WithMissingAction sets the missing-variable policy.
// Default: MissingEmpty.
func WithMissingAction(a MissingAction) Option {
	return func(e *Expander) {
		e.missingAction = a
	}
}

// NewExpander creates an Expander with the given options.
func NewExpander(opts ...Option) *Expander {
	e := &Expander{missingAction: MissingEmpty}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile-time interface check.
var _ Resolver = (*Expander)(nil)

// Resolve substitutes every {Number} reference in template with its value
// from vars. References with no value render per the missing-variable
// policy.
func (e *Expander) Resolve(template string, vars map[string]string) string {
	if template == "" {
		return ""
	}
	return refPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if val, ok := vars[name]; ok {
			return val
		}
		if e.missingAction == MissingKeep {
			return match
		}
		return ""
	})
}

// Validate returns one Reference per distinct name in template that does
// not appear in available, in order of first occurrence.
func (e *Expander) Validate(template string, available []string) []Reference {
	known := make(map[string]bool, len(available))
	for _, name := range available {
		known[name] = true
	}

	var refs []Reference
	seen := make(map[string]bool)
	for _, m := range refPattern.FindAllStringSubmatch(template, -1) {
		name := m[1]
		if known[name] || seen[name] {
			continue
		}
		seen[name] = true
		refs = append(refs, Reference{Name: name})
	}
	return refs
}

// References returns the distinct reference names in template, in order of
// first occurrence.
func References(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range refPattern.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// defaultExpander backs the package-level convenience functions.
var defaultExpander = NewExpander()

// Resolve substitutes references using the default expander
// (missing references render empty).
func Resolve(template string, vars map[string]string) string {
	return defaultExpander.Resolve(template, vars)
}

// Validate checks references using the default expander.
func Validate(template string, available []string) []Reference {
	return defaultExpander.Validate(template, available)
}
