package installer

import "github.com/blackwell-systems/macinstall/internal/packages"

type constructor func(rec packages.Record, deps Deps) Installer

var constructors = map[packages.Type]constructor{
	packages.TypeBrew:          func(r packages.Record, d Deps) Installer { return NewBrew(r, d) },
	packages.TypeBrewCask:      func(r packages.Record, d Deps) Installer { return NewCask(r, d) },
	packages.TypeBrewCaskLocal: func(r packages.Record, d Deps) Installer { return NewLocalCask(r, d) },
	packages.TypeMas:           func(r packages.Record, d Deps) Installer { return NewMas(r, d) },
}

// Build returns the strategy for rec. Invalid records and unsupported types
// yield false.
func Build(rec packages.Record, deps Deps) (Installer, bool) {
	if !rec.IsValid() {
		return nil, false
	}
	ctor, ok := constructors[rec.Type]
	if !ok {
		return nil, false
	}
	return ctor(rec, deps), true
}

// BuildAll builds strategies for records in order, skipping those Build
// rejects.
func BuildAll(records []packages.Record, deps Deps) []Installer {
	installers := make([]Installer, 0, len(records))
	for _, rec := range records {
		if inst, ok := Build(rec, deps); ok {
			installers = append(installers, inst)
		}
	}
	return installers
}
