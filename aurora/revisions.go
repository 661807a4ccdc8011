// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package aurora

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Revision is an enumeration for EVM specification revisions (aka. Hard-Forks).
type Revision int

// The list of supported revisions, in chronological order. The numbering
// leaves room for revisions that did not alter execution semantics (for
// instance, Muir Glacier between Istanbul and Berlin).
const (
	R00_Frontier Revision = iota
	R01_Homestead
	R02_TangerineWhistle
	R03_SpuriousDragon
	R04_Byzantium
	R05_Constantinople
	R06_Petersburg
	R07_Istanbul
	_ // Muir Glacier, no semantic changes
	R09_Berlin
	R10_London
	R11_Paris
	R12_Shanghai
	R13_Cancun
	R14_Prague
	numRevisions int = iota
)

// R99_UnknownNextRevision is a placeholder for the subsequent, yet unknown
// revision. It behaves like the latest known revision.
const R99_UnknownNextRevision Revision = 99

// MaxKnownRevision returns the latest revision this engine implements.
func MaxKnownRevision() Revision {
	return R14_Prague
}

func (r Revision) String() string {
	switch r {
	case R00_Frontier:
		return "Frontier"
	case R01_Homestead:
		return "Homestead"
	case R02_TangerineWhistle:
		return "TangerineWhistle"
	case R03_SpuriousDragon:
		return "SpuriousDragon"
	case R04_Byzantium:
		return "Byzantium"
	case R05_Constantinople:
		return "Constantinople"
	case R06_Petersburg:
		return "Petersburg"
	case R07_Istanbul:
		return "Istanbul"
	case R09_Berlin:
		return "Berlin"
	case R10_London:
		return "London"
	case R11_Paris:
		return "Paris"
	case R12_Shanghai:
		return "Shanghai"
	case R13_Cancun:
		return "Cancun"
	case R14_Prague:
		return "Prague"
	case R99_UnknownNextRevision:
		return "UnknownNextRevision"
	default:
		return fmt.Sprintf("Revision(%d)", r)
	}
}

func (r Revision) MarshalJSON() ([]byte, error) {
	revString := r.String()
	reg := regexp.MustCompile(`Revision\([0-9]+\)`)
	if reg.MatchString(revString) {
		return nil, &json.UnsupportedValueError{}
	}
	return json.Marshal(revString)
}

func (r *Revision) UnmarshalJSON(data []byte) error {
	var s string
	err := json.Unmarshal(data, &s)
	if err != nil {
		return err
	}
	var revision Revision

	switch s {
	case "Frontier":
		revision = R00_Frontier
	case "Homestead":
		revision = R01_Homestead
	case "TangerineWhistle":
		revision = R02_TangerineWhistle
	case "SpuriousDragon":
		revision = R03_SpuriousDragon
	case "Byzantium":
		revision = R04_Byzantium
	case "Constantinople":
		revision = R05_Constantinople
	case "Petersburg":
		revision = R06_Petersburg
	case "Istanbul":
		revision = R07_Istanbul
	case "Berlin":
		revision = R09_Berlin
	case "London":
		revision = R10_London
	case "Paris":
		revision = R11_Paris
	case "Shanghai":
		revision = R12_Shanghai
	case "Cancun":
		revision = R13_Cancun
	case "Prague":
		revision = R14_Prague
	case "UnknownNextRevision":
		revision = R99_UnknownNextRevision
	default:
		return &json.InvalidUnmarshalError{}
	}

	*r = revision
	return nil
}

// GetAllKnownRevisions returns all revisions implemented by this engine, in
// chronological order.
func GetAllKnownRevisions() []Revision {
	return []Revision{
		R00_Frontier,
		R01_Homestead,
		R02_TangerineWhistle,
		R03_SpuriousDragon,
		R04_Byzantium,
		R05_Constantinople,
		R06_Petersburg,
		R07_Istanbul,
		R09_Berlin,
		R10_London,
		R11_Paris,
		R12_Shanghai,
		R13_Cancun,
		R14_Prague,
	}
}

// Error for runs with unsupported Revision
type ErrUnsupportedRevision struct {
	Revision Revision
}

func (e *ErrUnsupportedRevision) Error() string {
	return fmt.Sprintf("unsupported revision %d", e.Revision)
}
