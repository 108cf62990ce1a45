package envcheck

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// DefaultProfilePath is the profile file looked up in the working directory
// when no explicit path is given.
const DefaultProfilePath = "envcheck.yaml"

// BuiltinProfileSource identifies the embedded profile in [ResolveProfile] results.
const BuiltinProfileSource = "builtin:codeigniter4"

var (
	//go:embed profiles/codeigniter4.yaml
	builtinProfileYAML []byte

	//go:embed schemas/profile.schema.json
	profileSchemaJSON []byte
)

var (
	profileSchema  = mustCompileSchema(profileSchemaJSON, "profile.schema.json")
	builtinProfile = mustParseProfile(builtinProfileYAML)
	schemaPrinter  = message.NewPrinter(language.English)
)

// Profile declares what a runtime must provide to run a framework.
type Profile struct {
	Name string `yaml:"name" json:"name"`
	// Description is markdown shown at the top of rendered reports.
	Description    string            `yaml:"description,omitempty" json:"description,omitempty"`
	MinimumVersion string            `yaml:"minimumVersion" json:"minimumVersion"`
	Constraint     string            `yaml:"constraint,omitempty" json:"constraint,omitempty"`
	Required       []string          `yaml:"required" json:"required"`
	Optional       []string          `yaml:"optional" json:"optional"`
	Config         []ConfigDirective `yaml:"config" json:"config"`
}

// ProfileError reports why a profile document was rejected.
type ProfileError struct {
	Source   string
	Problems []string
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("invalid profile %s: %s", e.Source, strings.Join(e.Problems, "; "))
}

// DefaultProfile returns a copy of the built-in CodeIgniter 4 profile.
func DefaultProfile() *Profile {
	return builtinProfile.Clone()
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Required = slices.Clone(p.Required)
	c.Optional = slices.Clone(p.Optional)
	c.Config = slices.Clone(p.Config)
	return &c
}

// Validate checks the invariants a [Checker] relies on.
func (p *Profile) Validate() error {
	var problems []string
	if strings.TrimSpace(p.MinimumVersion) == "" {
		problems = append(problems, "minimumVersion is empty")
	}
	if p.Constraint != "" {
		if _, err := CheckConstraint(p.MinimumVersion, p.Constraint); err != nil {
			problems = append(problems, err.Error())
		}
	}
	for _, d := range p.Config {
		if d.Key == "" {
			problems = append(problems, "config directive with empty key")
		}
		if err := d.Kind.validate(); err != nil {
			problems = append(problems, fmt.Sprintf("config %s: %v", d.Key, err))
		}
	}
	if len(problems) > 0 {
		return &ProfileError{Source: p.Name, Problems: problems}
	}
	return nil
}

// ParseProfile validates data against the profile schema and decodes it.
func ParseProfile(data []byte) (*Profile, error) {
	return parseProfile(data, "<input>")
}

func parseProfile(data []byte, source string) (*Profile, error) {
	if problems := ValidateProfileBytes(data); len(problems) > 0 {
		return nil, &ProfileError{Source: source, Problems: problems}
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", source, err)
	}
	if err := p.Validate(); err != nil {
		var pe *ProfileError
		if errors.As(err, &pe) {
			pe.Source = source
		}
		return nil, err
	}
	return &p, nil
}

// LoadProfile reads and parses a profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return parseProfile(data, path)
}

// profileSource describes a profile file location.
type profileSource struct {
	path string
	// optional sources are skipped when the file does not exist.
	optional bool
}

// ResolveProfile picks the profile to use. It tries, in order:
//  1. path, when non-empty (must exist)
//  2. ./envcheck.yaml
//  3. the built-in profile
//
// The second return value names the source that was used.
func ResolveProfile(path string) (*Profile, string, error) {
	var sources []profileSource
	if path != "" {
		sources = append(sources, profileSource{path: path})
	}
	sources = append(sources, profileSource{path: DefaultProfilePath, optional: true})

	for _, src := range sources {
		p, err := LoadProfile(src.path)
		if err == nil {
			return p, src.path, nil
		}
		if src.optional && errors.Is(err, os.ErrNotExist) {
			continue
		}
		return nil, "", err
	}

	return DefaultProfile(), BuiltinProfileSource, nil
}

// ValidateProfileBytes validates a YAML profile document against the
// profile schema and returns one message per violation.
func ValidateProfileBytes(data []byte) []string {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}
	if doc == nil {
		return []string{"empty profile"}
	}

	err := profileSchema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var problems []string
	collectSchemaErrors(ve, &problems)
	return problems
}

func collectSchemaErrors(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/" + strings.Join(ve.InstanceLocation, "/")
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(schemaPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, out)
	}
}

func mustCompileSchema(raw []byte, name string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		panic(fmt.Sprintf("parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("add %s resource: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile %s: %v", name, err))
	}
	return sch
}

func mustParseProfile(data []byte) *Profile {
	p, err := parseProfile(data, BuiltinProfileSource)
	if err != nil {
		panic(err)
	}
	return p
}
