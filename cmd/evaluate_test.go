//go:build !integration

package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCoordsFlagsCmd creates a fresh cobra.Command with the same location
// flags as evaluateCmd, so tests don't share mutable flag state.
func newCoordsFlagsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test-evaluate"}
	cmd.Flags().String("coords", "", "")
	cmd.Flags().Float64("lat", 0, "")
	cmd.Flags().Float64("lon", 0, "")
	return cmd
}

func TestClaimCoords_FromCoordsFlag(t *testing.T) {
	cmd := newCoordsFlagsCmd()
	require.NoError(t, cmd.Flags().Set("coords", "21.50,83.20"))

	coords, err := claimCoords(cmd)
	require.NoError(t, err)
	assert.Equal(t, "21.50,83.20", coords)
}

func TestClaimCoords_FromLatLonPair(t *testing.T) {
	cmd := newCoordsFlagsCmd()
	require.NoError(t, cmd.Flags().Set("lat", "21.5"))
	require.NoError(t, cmd.Flags().Set("lon", "83.2"))

	coords, err := claimCoords(cmd)
	require.NoError(t, err)
	assert.Equal(t, "21.5,83.2", coords)
}

func TestClaimCoords_CoordsWinsOverLatLon(t *testing.T) {
	cmd := newCoordsFlagsCmd()
	require.NoError(t, cmd.Flags().Set("coords", "10,20"))
	require.NoError(t, cmd.Flags().Set("lat", "21.5"))
	require.NoError(t, cmd.Flags().Set("lon", "83.2"))

	coords, err := claimCoords(cmd)
	require.NoError(t, err)
	assert.Equal(t, "10,20", coords)
}

func TestClaimCoords_MissingLocation(t *testing.T) {
	_, err := claimCoords(newCoordsFlagsCmd())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--coords")
}

func TestClaimCoords_LatAloneNotEnough(t *testing.T) {
	cmd := newCoordsFlagsCmd()
	require.NoError(t, cmd.Flags().Set("lat", "21.5"))

	_, err := claimCoords(cmd)
	require.Error(t, err)
}
