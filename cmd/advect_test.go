package cmd

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/vcflow/InputParameters"
)

func TestAdvectInput(t *testing.T) {
	var input InputParameters.InputParametersVC
	require.NoError(t, input.Parse([]byte(exampleFile)))
	assert.Equal(t, "Step Advection", input.Title)
	assert.Equal(t, []int{64, 16}, input.Cells)
	assert.Equal(t, 0.5, input.FinalTime)
	assert.Equal(t, "Wall", input.BCs["y"])
	input.Print()
	{ // Test viper values and flags override the input file
		v := viper.New()
		v.Set("convective_limiter", "CUI")
		v.Set("density_time_stepping_type", "SSPRK2")
		ma := &ModelAdvect{Steps: 3, Ranks: 1}
		require.NoError(t, applyOverrides(&input, ma, v))
		assert.Equal(t, "CUI", input.ConvectiveLimiter)
		assert.Equal(t, "SSPRK2", input.DensityTimeSteppingType)
		assert.Equal(t, "CONSTANT", input.BdryExtrapType)
		assert.Equal(t, 3, input.MaxIterations)
		assert.Equal(t, 1, input.Ranks)
		assert.Equal(t, 1, input.Levels)
	}
	{ // Test an override that breaks the input is reported
		ma := &ModelAdvect{Levels: 4}
		assert.Error(t, applyOverrides(&input, ma, viper.New()))
	}
}

func TestRunAdvect(t *testing.T) {
	ip := &InputParameters.InputParametersVC{}
	require.NoError(t, ip.Parse([]byte("Title: short\nMaxIterations: 2\nCells: [8, 8]\nBCs:\n  y: wall\n")))
	assert.NoError(t, RunAdvect(&ModelAdvect{}, ip))
	assert.Error(t, RunAdvect(&ModelAdvect{Profile: "gpu"}, ip))
	ip.ConvectiveLimiter = "SUPERBEE"
	assert.Error(t, RunAdvect(&ModelAdvect{}, ip))
}
