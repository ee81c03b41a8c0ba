package entities

import (
	"fmt"
	"strings"
)

// ProductState represents the storage state a unit of product is in
type ProductState int

const (
	// StateUnspecified is only valid on input records, where it means
	// "the node's natural storage state"
	StateUnspecified ProductState = iota
	Ambient
	Frozen
	Thawed
)

// AllStates lists every concrete storage state in canonical order
var AllStates = []ProductState{Ambient, Frozen, Thawed}

// NumStates is the number of concrete storage states
const NumStates = 3

// String method for ProductState enum
func (s ProductState) String() string {
	switch s {
	case Ambient:
		return "ambient"
	case Frozen:
		return "frozen"
	case Thawed:
		return "thawed"
	default:
		return "unspecified"
	}
}

// Index returns a zero-based array index for a concrete state
func (s ProductState) Index() int {
	return int(s) - 1
}

// Valid reports whether s is a concrete state
func (s ProductState) Valid() bool {
	return s == Ambient || s == Frozen || s == Thawed
}

// Consumable reports whether demand may be served from this state
func (s ProductState) Consumable() bool {
	return s == Ambient || s == Thawed
}

// ParseProductState parses a state name; an empty string yields StateUnspecified
func ParseProductState(value string) (ProductState, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return StateUnspecified, nil
	case "ambient":
		return Ambient, nil
	case "frozen":
		return Frozen, nil
	case "thawed":
		return Thawed, nil
	default:
		return StateUnspecified, fmt.Errorf("unknown product state %q", value)
	}
}

// StateGroup groups states that share physical storage for pallet accounting
type StateGroup int

const (
	AmbientGroup StateGroup = iota
	FrozenGroup
)

// NumStateGroups is the number of pallet storage groups
const NumStateGroups = 2

// Group returns the storage group a state is held in
func (s ProductState) Group() StateGroup {
	if s == Frozen {
		return FrozenGroup
	}
	return AmbientGroup
}

// String method for StateGroup enum
func (g StateGroup) String() string {
	if g == FrozenGroup {
		return "frozen"
	}
	return "ambient"
}

// TransportMode is the temperature regime a route ships under
type TransportMode int

const (
	ModeAmbient TransportMode = iota
	ModeFrozen
)

// String method for TransportMode enum
func (m TransportMode) String() string {
	if m == ModeFrozen {
		return "frozen"
	}
	return "ambient"
}

// ParseTransportMode parses a transport mode name
func ParseTransportMode(value string) (TransportMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ambient", "":
		return ModeAmbient, nil
	case "frozen":
		return ModeFrozen, nil
	default:
		return ModeAmbient, fmt.Errorf("unknown transport mode %q", value)
	}
}

// DepartureState returns the origin storage state a shipment under mode draws from
func DepartureState(mode TransportMode) ProductState {
	if mode == ModeFrozen {
		return Frozen
	}
	return Ambient
}

// ArrivalState returns the state a shipment lands in at a destination with
// the given capabilities. It is the only place the arrival rule is encoded:
//
//	ambient -> ambient-capable: ambient
//	ambient -> frozen-only:     frozen
//	frozen  -> frozen-capable:  frozen
//	frozen  -> ambient-only:    thawed (fresh shelf-life clock)
//
// The boolean is false when the destination can hold neither.
func ArrivalState(mode TransportMode, dest NodeCapabilities) (ProductState, bool) {
	switch mode {
	case ModeAmbient:
		if dest.StoresAmbient {
			return Ambient, true
		}
		if dest.StoresFrozen {
			return Frozen, true
		}
	case ModeFrozen:
		if dest.StoresFrozen {
			return Frozen, true
		}
		if dest.StoresAmbient {
			return Thawed, true
		}
	}
	return StateUnspecified, false
}

// MarshalText encodes the state by name
func (s ProductState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *ProductState) UnmarshalText(text []byte) error {
	parsed, err := ParseProductState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText encodes the mode by name
func (m TransportMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name
func (m *TransportMode) UnmarshalText(text []byte) error {
	parsed, err := ParseTransportMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
