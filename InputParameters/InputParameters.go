package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/vcflow/navier_stokes"
	"github.com/notargets/vcflow/utils"
)

var AxisNames = []string{"x", "y", "z"}

// Parameters obtained from the YAML input file
type InputParametersVC struct {
	Title                     string             `yaml:"Title"`
	CFL                       float64            `yaml:"CFL"`
	FinalTime                 float64            `yaml:"FinalTime"`
	MaxIterations             int                `yaml:"MaxIterations"`
	Dimension                 int                `yaml:"Dimension"`
	Cells                     []int              `yaml:"Cells"`   // Level 0 cells per axis
	Patches                   []int              `yaml:"Patches"` // Level 0 patches per axis
	Levels                    int                `yaml:"Levels"`
	Ranks                     int                `yaml:"Ranks"`
	InitType                  string             `yaml:"InitType"`
	Velocity                  []float64          `yaml:"Velocity"`
	BdryExtrapType            string             `yaml:"BdryExtrapType"`
	ConvectiveLimiter         string             `yaml:"ConvectiveLimiter"`
	VelocityConvectiveLimiter string             `yaml:"VelocityConvectiveLimiter"`
	DensityConvectiveLimiter  string             `yaml:"DensityConvectiveLimiter"`
	DensityTimeSteppingType   string             `yaml:"DensityTimeSteppingType"`
	BCs                       map[string]string  `yaml:"BCs"`      // Axis name to BC type, absent axes are periodic
	BCValues                  map[string]float64 `yaml:"BCValues"` // Axis name to Dirichlet density
}

func (ip *InputParametersVC) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	ip.SetDefaults()
	return ip.Validate()
}

// SetDefaults fills in values left out of the input file.
func (ip *InputParametersVC) SetDefaults() {
	if ip.Dimension == 0 {
		ip.Dimension = 2
	}
	if ip.CFL == 0 {
		ip.CFL = 0.5
	}
	if ip.Levels == 0 {
		ip.Levels = 1
	}
	if ip.Ranks == 0 {
		ip.Ranks = 1
	}
	if ip.InitType == "" {
		ip.InitType = "step"
	}
	if len(ip.Cells) == 0 {
		ip.Cells = make([]int, ip.Dimension)
		for d := range ip.Cells {
			ip.Cells[d] = 32
		}
	}
	if len(ip.Patches) == 0 {
		ip.Patches = make([]int, ip.Dimension)
		for d := range ip.Patches {
			ip.Patches[d] = 1
		}
	}
	if len(ip.Velocity) == 0 {
		ip.Velocity = make([]float64, ip.Dimension)
		ip.Velocity[0] = 1
	}
}

func (ip *InputParametersVC) Validate() error {
	switch {
	case ip.Dimension < 2 || ip.Dimension > 3:
		return fmt.Errorf("unable to use dimension %d, valid choices are 2 and 3", ip.Dimension)
	case len(ip.Cells) != ip.Dimension:
		return fmt.Errorf("need %d cell counts, have %d", ip.Dimension, len(ip.Cells))
	case len(ip.Patches) != ip.Dimension:
		return fmt.Errorf("need %d patch counts, have %d", ip.Dimension, len(ip.Patches))
	case len(ip.Velocity) != ip.Dimension:
		return fmt.Errorf("need %d velocity components, have %d", ip.Dimension, len(ip.Velocity))
	case ip.Levels < 1 || ip.Levels > 2:
		return fmt.Errorf("unable to use %d levels, valid choices are 1 and 2", ip.Levels)
	case ip.Ranks < 1:
		return fmt.Errorf("need at least one rank, have %d", ip.Ranks)
	case ip.CFL <= 0:
		return fmt.Errorf("CFL must be positive, have %g", ip.CFL)
	}
	for d := 0; d < ip.Dimension; d++ {
		if ip.Cells[d] < 4 || ip.Patches[d] < 1 || ip.Cells[d]%ip.Patches[d] != 0 {
			return fmt.Errorf("unable to split %d cells along %s into %d patches",
				ip.Cells[d], AxisNames[d], ip.Patches[d])
		}
	}
	_, err := ip.BoundaryTypes()
	return err
}

// BoundaryTypes returns the boundary condition of each axis.
func (ip *InputParametersVC) BoundaryTypes() (bcs []utils.BCType, err error) {
	bcs = make([]utils.BCType, ip.Dimension)
	for d := 0; d < ip.Dimension; d++ {
		bcs[d] = utils.BCPeriodic
		name, ok := ip.BCs[AxisNames[d]]
		if !ok {
			continue
		}
		if bcs[d], err = utils.ParseBCName(name); err != nil {
			return
		}
		if bcs[d] == utils.BCRobin {
			err = fmt.Errorf("axis %s: Robin conditions need coefficients, use dirichlet or neumann",
				AxisNames[d])
			return
		}
	}
	for name := range ip.BCs {
		if !isAxisName(name, ip.Dimension) {
			err = fmt.Errorf("unknown axis %s in BCs", name)
			return
		}
	}
	return
}

func isAxisName(name string, dim int) bool {
	for _, n := range AxisNames[:dim] {
		if n == name {
			return true
		}
	}
	return false
}

// OperatorConfig converts the operator options to the convective operator's
// configuration. Empty entries keep the operator defaults.
func (ip *InputParametersVC) OperatorConfig() navier_stokes.Config {
	return navier_stokes.Config{
		BdryExtrapType:            ip.BdryExtrapType,
		ConvectiveLimiter:         ip.ConvectiveLimiter,
		VelocityConvectiveLimiter: ip.VelocityConvectiveLimiter,
		DensityConvectiveLimiter:  ip.DensityConvectiveLimiter,
		DensityTimeSteppingType:   ip.DensityTimeSteppingType,
	}
}

func (ip *InputParametersVC) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%8.5f\t\t= CFL\n", ip.CFL)
	fmt.Printf("%8.5f\t\t= FinalTime\n", ip.FinalTime)
	fmt.Printf("[%d]\t\t\t\t= MaxIterations\n", ip.MaxIterations)
	fmt.Printf("%v\t\t\t= Cells\n", ip.Cells)
	fmt.Printf("%v\t\t\t= Patches\n", ip.Patches)
	fmt.Printf("[%d]\t\t\t\t= Levels\n", ip.Levels)
	fmt.Printf("[%d]\t\t\t\t= Ranks\n", ip.Ranks)
	fmt.Printf("[%s]\t\t\t= InitType\n", ip.InitType)
	fmt.Printf("%v\t\t\t= Velocity\n", ip.Velocity)
	cfg := ip.OperatorConfig()
	fmt.Printf("[%s]\t\t\t= Convective Limiter\n", cfg.ConvectiveLimiter)
	if cfg.VelocityConvectiveLimiter != "" {
		fmt.Printf("[%s]\t\t\t= Velocity Convective Limiter\n", cfg.VelocityConvectiveLimiter)
	}
	if cfg.DensityConvectiveLimiter != "" {
		fmt.Printf("[%s]\t\t\t= Density Convective Limiter\n", cfg.DensityConvectiveLimiter)
	}
	fmt.Printf("[%s]\t\t= Density Time Stepping\n", cfg.DensityTimeSteppingType)
	fmt.Printf("[%s]\t\t\t= Boundary Extrapolation\n", cfg.BdryExtrapType)
	keys := make([]string, len(ip.BCs))
	i := 0
	for k := range ip.BCs {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BCs[%s] = %v, value = %v\n", key, ip.BCs[key], ip.BCValues[key])
	}
}
