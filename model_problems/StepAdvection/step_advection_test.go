package StepAdvection

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/vcflow/InputParameters"
	"github.com/notargets/vcflow/grid"
)

func stepInput(cells, patches []int, ranks int) *InputParameters.InputParametersVC {
	return &InputParameters.InputParametersVC{
		Title:                   "step",
		CFL:                     0.5,
		MaxIterations:           1,
		Dimension:               2,
		Cells:                   cells,
		Patches:                 patches,
		Ranks:                   ranks,
		InitType:                "step",
		Velocity:                []float64{1, 0},
		ConvectiveLimiter:       "UPWIND",
		DensityTimeSteppingType: "FORWARD_EULER",
	}
}

func TestStepAdvection(t *testing.T) {
	{ // Test one upwind step at CFL 0.5 moves the jumps half a cell
		for _, layout := range []struct {
			patches []int
			ranks   int
		}{
			{[]int{1, 1}, 1},
			{[]int{2, 2}, 1},
			{[]int{4, 1}, 2},
		} {
			log, hook := test.NewNullLogger()
			c, err := NewStepAdvection(stepInput([]int{32, 4}, layout.patches, layout.ranks), log)
			require.NoError(t, err)
			assert.Equal(t, 1, c.Steps)
			assert.InDelta(t, 0.5/32, c.Dt, 1.e-16)
			require.NoError(t, c.Run(false))
			lev := c.Hierarchy.Level(0)
			for axis := 0; axis < 2; axis++ {
				grid.SideBox(lev.Domain, axis).ForEach(func(p grid.IntVector) {
					var (
						up  = p.Sub(grid.Unit(0))
						rho = c.InitialDensity(lev.SidePosition(axis, wrap(lev, p)))
						rhU = c.InitialDensity(lev.SidePosition(axis, wrap(lev, up)))
					)
					v, ok := c.Density(0, axis, p)
					require.True(t, ok)
					assert.InDeltaf(t, rho-0.5*(rho-rhU), v, 1.e-13, "axis %d side %v", axis, p)
				})
			}
			{ // Both jumps now sit on a half value
				v, _ := c.Density(0, 0, grid.IntVector{16, 1, 0})
				assert.InDelta(t, 0.5*(stepHigh+stepLow), v, 1.e-13)
				v, _ = c.Density(0, 0, grid.IntVector{0, 2, 0})
				assert.InDelta(t, 0.5*(stepHigh+stepLow), v, 1.e-13)
			}
			require.Len(t, c.Reports, 1)
			rep := c.Reports[0]
			assert.GreaterOrEqual(t, rep.DensityMin, stepLow)
			assert.LessOrEqual(t, rep.DensityMax, stepHigh)
			assert.InDelta(t, 0, c.MassDrift(), 1.e-12)
			var finished bool
			for _, entry := range hook.AllEntries() {
				if entry.Message == "finished" {
					finished = true
				}
			}
			assert.True(t, finished)
		}
	}
	{ // Test a longer upwind run stays within the initial bounds
		ip := stepInput([]int{32, 4}, []int{2, 1}, 2)
		ip.MaxIterations = 0
		ip.FinalTime = 0.25
		log, _ := test.NewNullLogger()
		c, err := NewStepAdvection(ip, log)
		require.NoError(t, err)
		assert.Equal(t, 16, c.Steps)
		require.NoError(t, c.Run(false))
		require.Len(t, c.Reports, 16)
		for _, rep := range c.Reports {
			assert.GreaterOrEqual(t, rep.DensityMin, stepLow-1.e-14)
			assert.LessOrEqual(t, rep.DensityMax, stepHigh+1.e-14)
		}
		assert.InDelta(t, 0.25, c.Reports[15].Time, 1.e-12)
		assert.InDelta(t, 0, c.MassDrift(), 1.e-12)
	}
}

func TestInflowBoundary(t *testing.T) {
	ip := stepInput([]int{16, 4}, []int{2, 1}, 2)
	ip.MaxIterations = 6
	ip.BCs = map[string]string{"x": "inflow"}
	ip.BCValues = map[string]float64{"x": stepHigh}
	log, _ := test.NewNullLogger()
	c, err := NewStepAdvection(ip, log)
	require.NoError(t, err)
	assert.False(t, c.Hierarchy.Periodic[0])
	assert.True(t, c.Hierarchy.Periodic[1])
	require.NoError(t, c.Run(false))
	for j := 0; j < 4; j++ {
		v, ok := c.Density(0, 0, grid.IntVector{0, j, 0})
		require.True(t, ok)
		assert.InDelta(t, stepHigh, v, 1.e-14)
	}
	for _, rep := range c.Reports {
		assert.GreaterOrEqual(t, rep.DensityMin, stepLow-1.e-14)
		assert.LessOrEqual(t, rep.DensityMax, stepHigh+1.e-14)
	}
}

func TestTwoLevelSine(t *testing.T) {
	ip := &InputParameters.InputParametersVC{
		Title:                   "sine",
		MaxIterations:           4,
		Cells:                   []int{16, 16},
		Patches:                 []int{2, 2},
		Levels:                  2,
		Ranks:                   2,
		InitType:                "sine",
		Velocity:                []float64{1, 0.5},
		ConvectiveLimiter:       "CUI",
		DensityTimeSteppingType: "SSPRK2",
	}
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	c, err := NewStepAdvection(ip, log)
	require.NoError(t, err)
	require.Equal(t, 2, c.Hierarchy.NumLevels())
	assert.InDelta(t, 0.5/32, c.Dt, 1.e-16)
	require.NoError(t, c.Run(false))
	require.Len(t, c.Reports, 4)
	for _, rep := range c.Reports {
		assert.False(t, math.IsNaN(rep.NewMass))
		// The sinusoid is centered on one, so the domain mass is two
		assert.InDelta(t, 2, rep.OldMass, 0.05)
	}
	assert.Less(t, math.Abs(c.MassDrift()), 0.05)
	{ // The fine level holds data inside the refined region
		_, ok := c.Density(1, 0, grid.IntVector{16, 16, 0})
		assert.True(t, ok)
		_, ok = c.Density(1, 0, grid.IntVector{2, 2, 0})
		assert.False(t, ok)
	}
}

func TestScenarioErrors(t *testing.T) {
	{ // Test an unknown init type
		ip := stepInput([]int{8, 8}, []int{1, 1}, 1)
		ip.InitType = "ramp"
		_, err := NewStepAdvection(ip, nil)
		assert.Error(t, err)
	}
	{ // Test an unknown limiter fails on every rank
		ip := stepInput([]int{8, 8}, []int{1, 1}, 2)
		ip.ConvectiveLimiter = "SUPERBEE"
		c, err := NewStepAdvection(ip, nil)
		require.NoError(t, err)
		assert.Error(t, c.Run(false))
	}
}

func TestPlotMesh(t *testing.T) {
	c, err := NewStepAdvection(stepInput([]int{8, 4}, []int{2, 2}, 1), nil)
	require.NoError(t, err)
	require.NoError(t, c.Run(false))
	gm, field, err := c.PlotMesh()
	require.NoError(t, err)
	assert.Len(t, field, 9*4)
	assert.Len(t, gm.XY, 2*9*4)
	assert.Len(t, gm.TriVerts, 2*8*3)
	assert.Equal(t, float32(1), gm.XY[2*8])
	assert.Equal(t, float32(0.125), gm.XY[1])
}
