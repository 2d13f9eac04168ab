package utils

import (
	"fmt"
	"strings"
)

// BCType names the kind of condition applied on one side of the physical
// domain.
type BCType uint16

const (
	BCNone BCType = iota

	BCPeriodic  // Wraps onto the opposite side, no physical condition
	BCDirichlet // Fixed value, a=1 b=0
	BCNeumann   // Fixed normal gradient, a=0 b=1
	BCRobin     // Mixed a*u + b*du/dn = g
	BCInflow    // Dirichlet on the inflow value
	BCOutflow   // Zero normal gradient
	BCWall      // Zero value of the normal component, zero gradient of the rest
	BCExtrapolate
)

var bcNames = map[BCType]string{
	BCNone:        "None",
	BCPeriodic:    "Periodic",
	BCDirichlet:   "Dirichlet",
	BCNeumann:     "Neumann",
	BCRobin:       "Robin",
	BCInflow:      "Inflow",
	BCOutflow:     "Outflow",
	BCWall:        "Wall",
	BCExtrapolate: "Extrapolate",
}

func (bc BCType) String() string {
	if name, ok := bcNames[bc]; ok {
		return name
	}
	return "Unknown"
}

// BCNameMap maps lowercase names found in input files to BCType
var BCNameMap = map[string]BCType{
	"periodic":    BCPeriodic,
	"dirichlet":   BCDirichlet,
	"fixed":       BCDirichlet,
	"neumann":     BCNeumann,
	"robin":       BCRobin,
	"mixed":       BCRobin,
	"inlet":       BCInflow,
	"inflow":      BCInflow,
	"outlet":      BCOutflow,
	"outflow":     BCOutflow,
	"exit":        BCOutflow,
	"wall":        BCWall,
	"no_slip":     BCWall,
	"extrapolate": BCExtrapolate,
	"none":        BCExtrapolate,
}

// ParseBCName converts a boundary condition name to BCType, ignoring case and
// surrounding whitespace.
func ParseBCName(name string) (bc BCType, err error) {
	var ok bool
	if bc, ok = BCNameMap[strings.ToLower(strings.TrimSpace(name))]; !ok {
		err = fmt.Errorf("unable to use boundary condition named %s", name)
	}
	return
}
