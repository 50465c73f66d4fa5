// Package packages defines the declarative package record and loads package
// documents into validated records.
package packages

import (
	"errors"
	"fmt"
)

// Type identifies the package manager responsible for a record.
type Type string

const (
	TypeBrew          Type = "brew"
	TypeBrewCask      Type = "brewcask"
	TypeBrewCaskLocal Type = "brewcasklocal"
	TypeMas           Type = "mas"
)

// Types lists every supported package type.
var Types = []Type{TypeBrew, TypeBrewCask, TypeBrewCaskLocal, TypeMas}

// Supported reports whether t is one of the recognized package types.
func (t Type) Supported() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// State is the desired presence of a package.
type State string

const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
)

// DefaultState applies when a record omits "state".
const DefaultState = StatePresent

var (
	// ErrInvalid reports a record missing a field its type requires.
	ErrInvalid = errors.New("invalid package record")
	// ErrUnsupported reports a record with an unknown package type.
	ErrUnsupported = errors.New("unsupported package type")
)

// Record is one declared package and its desired state.
type Record struct {
	FullName string `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Type     Type   `json:"package_type" yaml:"package_type"`
	MasID    string `json:"mas_id,omitempty" yaml:"mas_id,omitempty"`
	State    State  `json:"state" yaml:"state"`
	Force    bool   `json:"force,omitempty" yaml:"force,omitempty"`
}

// Validate checks the per-type field requirements.
func (r Record) Validate() error {
	switch r.Type {
	case TypeMas:
		if r.MasID == "" {
			return fmt.Errorf("%w: package type %q without mas_id", ErrInvalid, r.Type)
		}
		return nil
	case TypeBrew, TypeBrewCask, TypeBrewCaskLocal:
		if r.Name == "" {
			return fmt.Errorf("%w: package type %q without name", ErrInvalid, r.Type)
		}
		return nil
	case "":
		return fmt.Errorf("%w: missing package_type", ErrUnsupported)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupported, r.Type)
	}
}

// IsValid reports whether Validate succeeds.
func (r Record) IsValid() bool {
	return r.Validate() == nil
}

// Label is the most readable identifier of the record for log lines.
func (r Record) Label() string {
	switch {
	case r.Name != "":
		return r.Name
	case r.FullName != "":
		return r.FullName
	case r.MasID != "":
		return r.MasID
	default:
		return "<unnamed>"
	}
}

func (r Record) String() string {
	return fmt.Sprintf("full_name:%s,name:%s,package_type:%s,mas_id:%s,state:%s,force:%t",
		r.FullName, r.Name, r.Type, r.MasID, r.State, r.Force)
}
