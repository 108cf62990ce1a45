package envcheck

import "fmt"

// ConfigKind selects how a directive value is displayed.
type ConfigKind string

const (
	// ConfigRaw shows the value as the runtime reports it.
	ConfigRaw ConfigKind = "raw"
	// ConfigFlag shows "Enabled" or "Disabled".
	ConfigFlag ConfigKind = "flag"
	// ConfigSeconds shows the value followed by " seconds".
	ConfigSeconds ConfigKind = "seconds"
)

// ConfigDirective names a runtime directive to include in the snapshot.
type ConfigDirective struct {
	Key  string     `yaml:"key" json:"key"`
	Kind ConfigKind `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// Display formats a directive value. ok is false when the runtime does not
// know the directive; such directives display as disabled or empty.
func (k ConfigKind) Display(value string, ok bool) string {
	if !ok {
		value = ""
	}
	switch k {
	case ConfigFlag:
		if truthy(value) {
			return "Enabled"
		}
		return "Disabled"
	case ConfigSeconds:
		return value + " seconds"
	default:
		return value
	}
}

func (k ConfigKind) validate() error {
	switch k {
	case "", ConfigRaw, ConfigFlag, ConfigSeconds:
		return nil
	default:
		return fmt.Errorf("unknown config kind %q", string(k))
	}
}

// truthy applies PHP string truthiness: only "" and "0" are false.
func truthy(s string) bool {
	return s != "" && s != "0"
}

// uniqueNames drops repeated names, keeping the first occurrence in place.
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
