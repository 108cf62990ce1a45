package envcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Runtime is the introspection surface of the inspected runtime.
// Implementations must query live state on every call.
type Runtime interface {
	// Name is the display name of the runtime, e.g. "PHP".
	Name() string
	// Version returns the running version string.
	Version(ctx context.Context) (string, error)
	// ExtensionLoaded reports whether the named extension is available.
	ExtensionLoaded(ctx context.Context, name string) (bool, error)
	// IniGet returns the current value of a configuration directive.
	// ok is false when the directive does not exist.
	IniGet(ctx context.Context, key string) (value string, ok bool, err error)
}

// Checker evaluates a [Runtime] against a [Profile].
// It keeps no state between calls.
type Checker struct {
	runtime Runtime
	profile *Profile
	logger  *slog.Logger
	now     func() time.Time
	host    func() HostInfo
}

// CheckerOption configures a [Checker].
type CheckerOption func(*Checker)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) CheckerOption {
	return func(c *Checker) {
		c.logger = l
	}
}

// WithClock overrides the clock used for [Report.GeneratedAt].
func WithClock(now func() time.Time) CheckerOption {
	return func(c *Checker) {
		c.now = now
	}
}

// NewChecker returns a checker for rt using profile p.
func NewChecker(rt Runtime, p *Profile, opts ...CheckerOption) (*Checker, error) {
	if rt == nil {
		return nil, errors.New("nil runtime")
	}
	if p == nil {
		return nil, errors.New("nil profile")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c := &Checker{
		runtime: rt,
		profile: p,
		logger:  slog.Default(),
		now:     time.Now,
		host:    probeHost,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Profile returns the profile the checker evaluates.
func (c *Checker) Profile() *Profile {
	return c.profile
}

// CheckVersion queries the running version and compares it with the profile.
func (c *Checker) CheckVersion(ctx context.Context) (VersionCheckResult, error) {
	current, err := c.runtime.Version(ctx)
	if err != nil {
		return VersionCheckResult{}, fmt.Errorf("query version: %w", err)
	}

	res := CheckVersion(current, c.profile.MinimumVersion)
	if c.profile.Constraint != "" {
		ok, err := CheckConstraint(current, c.profile.Constraint)
		if err != nil {
			return VersionCheckResult{}, err
		}
		res.Constraint = c.profile.Constraint
		res.ConstraintSatisfied = &ok
	}
	return res, nil
}

// CheckFeature reports whether the named extension is currently available.
func (c *Checker) CheckFeature(ctx context.Context, name string) (bool, error) {
	return c.runtime.ExtensionLoaded(ctx, name)
}

// CheckFeatureSet checks every name in order. Repeated names are checked
// once, at their first position. An empty input yields an empty result.
func (c *Checker) CheckFeatureSet(ctx context.Context, names []string) (FeatureCheckResult, error) {
	names = uniqueNames(names)
	res := make(FeatureCheckResult, 0, len(names))
	for _, name := range names {
		present, err := c.CheckFeature(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("check extension %s: %w", name, err)
		}
		c.logger.Debug("extension checked", "name", name, "present", present)
		res = append(res, FeatureResult{Name: name, Present: present})
	}
	return res, nil
}

// SnapshotConfig reads the profile's directives from the live configuration.
func (c *Checker) SnapshotConfig(ctx context.Context) (ConfigSnapshot, error) {
	snap := make(ConfigSnapshot, 0, len(c.profile.Config))
	for _, d := range c.profile.Config {
		value, ok, err := c.runtime.IniGet(ctx, d.Key)
		if err != nil {
			return nil, fmt.Errorf("read directive %s: %w", d.Key, err)
		}
		snap = append(snap, ConfigEntry{Key: d.Key, Value: d.Kind.Display(value, ok)})
	}
	return snap, nil
}

// Run performs every check and assembles a [Report].
func (c *Checker) Run(ctx context.Context) (*Report, error) {
	version, err := c.CheckVersion(ctx)
	if err != nil {
		return nil, err
	}

	required, err := c.CheckFeatureSet(ctx, c.profile.Required)
	if err != nil {
		return nil, err
	}

	optional, err := c.CheckFeatureSet(ctx, c.profile.Optional)
	if err != nil {
		return nil, err
	}

	cfg, err := c.SnapshotConfig(ctx)
	if err != nil {
		return nil, err
	}

	r := &Report{
		Profile:          c.profile.Name,
		Runtime:          c.runtime.Name(),
		Host:             c.host(),
		Version:          version,
		RequiredFeatures: required,
		OptionalFeatures: optional,
		Config:           cfg,
		GeneratedAt:      c.now(),
		Description:      c.profile.Description,
	}
	c.logger.Debug("report generated",
		"profile", r.Profile,
		"version", version.Current,
		"ready", r.Ready(),
	)
	return r, nil
}
