package envcheck

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRuntimeUnavailable is returned when the runtime cannot be introspected at all.
var ErrRuntimeUnavailable = errors.New("runtime unavailable")

// RuntimeError describes a failed introspection query.
type RuntimeError struct {
	// Query names what was asked, e.g. "extension_loaded(intl)".
	Query string
	// Stderr holds whatever the runtime wrote to its error stream.
	Stderr string
	Err    error
}

func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("query %s", e.Query)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s (stderr: %s)", msg, e.Stderr)
	}
	return msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// VersionCheckResult is the outcome of comparing the running version with the required one.
type VersionCheckResult struct {
	Current  string `json:"current"`
	Required string `json:"required"`
	// Satisfied reports whether Current >= Required.
	Satisfied bool `json:"satisfied"`

	// Constraint is the optional extra constraint declared by the profile.
	Constraint string `json:"constraint,omitempty"`
	// ConstraintSatisfied is nil when no constraint was evaluated.
	ConstraintSatisfied *bool `json:"constraintSatisfied,omitempty"`
}

// OK reports whether both the minimum version and the constraint, if any, hold.
func (v VersionCheckResult) OK() bool {
	if !v.Satisfied {
		return false
	}
	return v.ConstraintSatisfied == nil || *v.ConstraintSatisfied
}

// FeatureResult is the presence of a single extension.
type FeatureResult struct {
	Name    string `json:"name"`
	Present bool   `json:"present"`
}

// FeatureCheckResult lists extension results in input order.
type FeatureCheckResult []FeatureResult

// Missing returns the names of the absent extensions, in order.
func (r FeatureCheckResult) Missing() []string {
	var out []string
	for _, f := range r {
		if !f.Present {
			out = append(out, f.Name)
		}
	}
	return out
}

// Lookup returns the result for name and whether it was checked.
func (r FeatureCheckResult) Lookup(name string) (FeatureResult, bool) {
	for _, f := range r {
		if f.Name == name {
			return f, true
		}
	}
	return FeatureResult{}, false
}

// ConfigEntry is one displayed configuration directive.
type ConfigEntry struct {
	Key   string
	Value string
}

// ConfigSnapshot holds directive values in display order.
// It marshals to a JSON object whose keys keep that order.
type ConfigSnapshot []ConfigEntry

// Get returns the display value of key.
func (s ConfigSnapshot) Get(key string) (string, bool) {
	for _, e := range s {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// MarshalJSON writes the snapshot as an object. Strings are left
// HTML-unescaped; the calling encoder decides whether to escape them.
func (s ConfigSnapshot) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	b.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := enc.Encode(e.Key); err != nil {
			return nil, err
		}
		b.Truncate(b.Len() - 1)
		b.WriteByte(':')
		if err := enc.Encode(e.Value); err != nil {
			return nil, err
		}
		b.Truncate(b.Len() - 1)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// HostInfo describes the machine the report was generated on.
type HostInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Hostname      string `json:"hostname,omitempty"`
	KernelRelease string `json:"kernelRelease,omitempty"`
}

// Report aggregates every check of a single run.
type Report struct {
	Profile          string             `json:"profile"`
	Runtime          string             `json:"runtime"`
	Host             HostInfo           `json:"host"`
	Version          VersionCheckResult `json:"version"`
	RequiredFeatures FeatureCheckResult `json:"requiredFeatures"`
	OptionalFeatures FeatureCheckResult `json:"optionalFeatures"`
	Config           ConfigSnapshot     `json:"config"`
	GeneratedAt      time.Time          `json:"generatedAt"`

	// Description is the profile's markdown description, for renderers.
	Description string `json:"-"`
}

// Ready reports whether the version requirements hold and every required extension is present.
func (r *Report) Ready() bool {
	return r.Version.OK() && len(r.RequiredFeatures.Missing()) == 0
}

// Problems returns one human-readable line per unmet requirement.
// Missing optional extensions are not problems.
func (r *Report) Problems() []string {
	problems := []string{}
	if !r.Version.Satisfied {
		problems = append(problems, fmt.Sprintf("%s version %s is too low; upgrade to at least %s %s",
			r.Runtime, r.Version.Current, r.Runtime, r.Version.Required))
	}
	if r.Version.ConstraintSatisfied != nil && !*r.Version.ConstraintSatisfied {
		problems = append(problems, fmt.Sprintf("%s version %s does not satisfy %q",
			r.Runtime, r.Version.Current, r.Version.Constraint))
	}
	for _, name := range r.RequiredFeatures.Missing() {
		problems = append(problems, fmt.Sprintf("required extension %s is not installed", name))
	}
	return problems
}
