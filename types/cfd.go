package types

import (
	"fmt"
	"strings"
)

// LimiterType selects the reconstruction used to put a side-centered
// quantity onto the faces of its control volume.
type LimiterType uint8

const (
	UPWIND LimiterType = iota
	CUI
	FBICS
	MGAMMA
	UNKNOWN_LIMITER
)

var (
	LimiterNames = map[string]LimiterType{
		"upwind": UPWIND,
		"cui":    CUI,
		"fbics":  FBICS,
		"mgamma": MGAMMA,
	}
	LimiterPrintNames = []string{"UPWIND", "CUI", "FBICS", "MGAMMA", "UNKNOWN_LIMITER"}
)

func (lt LimiterType) Print() (txt string) {
	if int(lt) >= len(LimiterPrintNames) {
		return "UNKNOWN_LIMITER"
	}
	txt = LimiterPrintNames[lt]
	return
}

func (lt LimiterType) String() string { return lt.Print() }

func ParseLimiterType(label string) (lt LimiterType, err error) {
	var ok bool
	if lt, ok = LimiterNames[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unable to use limiter named %s, valid choices are UPWIND, CUI, FBICS, MGAMMA", label)
		lt = UNKNOWN_LIMITER
	}
	return
}

func NewLimiterType(label string) (lt LimiterType) {
	var err error
	if lt, err = ParseLimiterType(label); err != nil {
		panic(err)
	}
	return
}

// TimeSteppingType selects how the density is advanced in time.
type TimeSteppingType uint8

const (
	FORWARD_EULER TimeSteppingType = iota
	SSPRK2
	UNKNOWN_TIME_STEPPING
)

var (
	TimeSteppingNames = map[string]TimeSteppingType{
		"forward_euler": FORWARD_EULER,
		"ssprk2":        SSPRK2,
	}
	TimeSteppingPrintNames = []string{"FORWARD_EULER", "SSPRK2", "UNKNOWN_TIME_STEPPING"}
)

func (ts TimeSteppingType) Print() (txt string) {
	if int(ts) >= len(TimeSteppingPrintNames) {
		return "UNKNOWN_TIME_STEPPING"
	}
	txt = TimeSteppingPrintNames[ts]
	return
}

func (ts TimeSteppingType) String() string { return ts.Print() }

// Stages is the number of convective evaluations per step.
func (ts TimeSteppingType) Stages() int {
	if ts == SSPRK2 {
		return 2
	}
	return 1
}

func ParseTimeSteppingType(label string) (ts TimeSteppingType, err error) {
	var ok bool
	if ts, ok = TimeSteppingNames[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unable to use time stepping type %s, valid choices are FORWARD_EULER, SSPRK2", label)
		ts = UNKNOWN_TIME_STEPPING
	}
	return
}

func NewTimeSteppingType(label string) (ts TimeSteppingType) {
	var err error
	if ts, err = ParseTimeSteppingType(label); err != nil {
		panic(err)
	}
	return
}

// DifferencingType is the discrete form of the convective term.
type DifferencingType uint8

const (
	ADVECTIVE DifferencingType = iota
	CONSERVATIVE
	SKEW_SYMMETRIC
	UNKNOWN_DIFFERENCING
)

var (
	DifferencingNames = map[string]DifferencingType{
		"advective":      ADVECTIVE,
		"conservative":   CONSERVATIVE,
		"divergence":     CONSERVATIVE,
		"skew_symmetric": SKEW_SYMMETRIC,
	}
	DifferencingPrintNames = []string{"ADVECTIVE", "CONSERVATIVE", "SKEW_SYMMETRIC", "UNKNOWN_DIFFERENCING"}
)

func (dt DifferencingType) Print() (txt string) {
	if int(dt) >= len(DifferencingPrintNames) {
		return "UNKNOWN_DIFFERENCING"
	}
	txt = DifferencingPrintNames[dt]
	return
}

func (dt DifferencingType) String() string { return dt.Print() }

func ParseDifferencingType(label string) (dt DifferencingType, err error) {
	var ok bool
	if dt, ok = DifferencingNames[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unable to use differencing form %s", label)
		dt = UNKNOWN_DIFFERENCING
	}
	return
}

// BdryExtrapType is the polynomial order used to extrapolate into ghost
// regions where no boundary coefficients are given.
type BdryExtrapType uint8

const (
	CONSTANT BdryExtrapType = iota
	LINEAR
	QUADRATIC
	UNKNOWN_EXTRAP
)

var (
	BdryExtrapNames = map[string]BdryExtrapType{
		"constant":  CONSTANT,
		"linear":    LINEAR,
		"quadratic": QUADRATIC,
	}
	BdryExtrapPrintNames = []string{"CONSTANT", "LINEAR", "QUADRATIC", "UNKNOWN_EXTRAP"}
)

func (be BdryExtrapType) Print() (txt string) {
	if int(be) >= len(BdryExtrapPrintNames) {
		return "UNKNOWN_EXTRAP"
	}
	txt = BdryExtrapPrintNames[be]
	return
}

func (be BdryExtrapType) String() string { return be.Print() }

func ParseBdryExtrapType(label string) (be BdryExtrapType, err error) {
	var ok bool
	if be, ok = BdryExtrapNames[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unable to use boundary extrapolation type %s, valid choices are CONSTANT, LINEAR, QUADRATIC", label)
		be = UNKNOWN_EXTRAP
	}
	return
}
