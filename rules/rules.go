package rules

import (
	"emperror.dev/errors"
)

const (
	// DefaultPriority is stamped on newly created rules unless configured otherwise.
	DefaultPriority int64 = 500

	// DirectionIngress is the only direction this tool manages.
	DirectionIngress = "INGRESS"

	// ProtocolAll denies every IP protocol.
	ProtocolAll = "all"
)

// ErrEmptySourceRanges is returned when a payload would carry no source ranges.
const ErrEmptySourceRanges = errors.Sentinel("source ranges must be a non-empty list")

// Denied represents a single protocol clause of a deny rule
type Denied struct {
	IPProtocol string   `json:"IPProtocol" yaml:"IPProtocol"`
	Ports      []string `json:"ports,omitempty" yaml:"ports,omitempty"`
}

// Definition is the full desired state of a newly created firewall rule.
type Definition struct {
	Name         string   `json:"name" yaml:"name"`
	Direction    string   `json:"direction" yaml:"direction"`
	Priority     int64    `json:"priority" yaml:"priority"`
	Description  string   `json:"description" yaml:"description"`
	Denied       []Denied `json:"denied" yaml:"denied"`
	SourceRanges []string `json:"sourceRanges" yaml:"sourceRanges"`
}

// Update replaces the source ranges of an existing rule. It intentionally
// carries nothing else so that drifted attributes are left untouched.
type Update struct {
	Name         string   `json:"name" yaml:"name"`
	SourceRanges []string `json:"sourceRanges" yaml:"sourceRanges"`
}

// Builder turns a rule name and a source range list into service payloads.
type Builder struct {
	Priority    int64
	Description string // empty means "use the rule name"
}

// NewBuilder returns a Builder stamping the given priority. Zero is a valid
// priority and is kept as is; callers wanting the default pass DefaultPriority.
func NewBuilder(priority int64, description string) *Builder {
	return &Builder{Priority: priority, Description: description}
}

// Definition builds the creation payload for rule name.
func (b *Builder) Definition(name string, ranges []string) (*Definition, error) {
	if err := checkRanges(name, ranges); err != nil {
		return nil, err
	}
	description := b.Description
	if description == "" {
		description = name
	}
	return &Definition{
		Name:         name,
		Direction:    DirectionIngress,
		Priority:     b.Priority,
		Description:  description,
		Denied:       []Denied{{IPProtocol: ProtocolAll}},
		SourceRanges: append([]string(nil), ranges...),
	}, nil
}

// Update builds the update payload for rule name.
func (b *Builder) Update(name string, ranges []string) (*Update, error) {
	if err := checkRanges(name, ranges); err != nil {
		return nil, err
	}
	return &Update{
		Name:         name,
		SourceRanges: append([]string(nil), ranges...),
	}, nil
}

func checkRanges(name string, ranges []string) error {
	if len(ranges) == 0 {
		return errors.Wrapf(ErrEmptySourceRanges, "firewall %q", name)
	}
	return nil
}
