package groundwater

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawExport = `Well_ID,Latitude,Longitude,Pre-monsoon_2019 (meters below ground level),Post-monsoon_2019 (meters below ground level),Pre-monsoon_2020 (meters below ground level),Post-monsoon_2020 (meters below ground level)
W001,21.50,83.20,14.2,9.1,15.0,8.4
W002,21.60,83.25,13.0,10.5,,
W003,bad-lat,83.10,10.0,9.0,8.0,7.0
W004,21.40,83.10,,,,
`

func prepare(t *testing.T, raw string) (*Dataset, int) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "raw.csv")
	out := filepath.Join(dir, "wells.csv")
	require.NoError(t, writeFile(t, in, raw))

	n, err := PrepareRaw(in, out)
	require.NoError(t, err)

	ds, err := Load(out)
	require.NoError(t, err)
	return ds, n
}

func TestPrepareRaw_PicksMostRecentSeason(t *testing.T) {
	t.Parallel()

	ds, n := prepare(t, rawExport)
	assert.Equal(t, 2, n)
	require.Equal(t, 2, ds.Len())

	byStation := make(map[string]Well)
	for _, w := range ds.Wells() {
		byStation[w.StationCode] = w
	}

	// W001 has all four seasons: Post-monsoon 2020 wins.
	w1 := byStation["W001"]
	assert.Equal(t, 8.4, w1.DepthMBGL)
	assert.Equal(t, "Post-monsoon_2020", w1.MeasuredAt)

	// W002's 2020 cells are empty: falls back to Post-monsoon 2019.
	w2 := byStation["W002"]
	assert.Equal(t, 10.5, w2.DepthMBGL)
	assert.Equal(t, "Post-monsoon_2019", w2.MeasuredAt)
}

func TestPrepareRaw_SkipsUnusableRows(t *testing.T) {
	t.Parallel()

	// W003 has a bad latitude, W004 has no readings at all.
	ds, _ := prepare(t, rawExport)
	for _, w := range ds.Wells() {
		assert.NotEqual(t, "W003", w.StationCode)
		assert.NotEqual(t, "W004", w.StationCode)
	}
}

func TestPrepareRaw_DeduplicatesStations(t *testing.T) {
	t.Parallel()

	raw := `Well_ID,Latitude,Longitude,Pre-monsoon_2019 (m),Post-monsoon_2020 (m)
W001,21.50,83.20,14.2,
W001,21.50,83.20,,8.4
`
	ds, n := prepare(t, raw)
	assert.Equal(t, 1, n)
	require.Equal(t, 1, ds.Len())

	// The more recent record for the duplicated station wins.
	assert.Equal(t, 8.4, ds.Wells()[0].DepthMBGL)
	assert.Equal(t, "Post-monsoon_2020", ds.Wells()[0].MeasuredAt)
}

func TestPrepareRaw_StationWithoutIDKeyedByCoordinates(t *testing.T) {
	t.Parallel()

	raw := `Latitude,Longitude,Post-monsoon_2020 (m)
21.50,83.20,8.4
21.60,83.25,10.5
21.50,83.20,9.9
`
	_, n := prepare(t, raw)
	assert.Equal(t, 2, n)
}

func TestPrepareRaw_PostMonsoonBeatsPreMonsoonSameYear(t *testing.T) {
	t.Parallel()

	raw := `Well_ID,Latitude,Longitude,Pre-monsoon_2020 (m),Post-monsoon_2020 (m)
W001,21.50,83.20,15.0,8.4
`
	ds, _ := prepare(t, raw)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "Post-monsoon_2020", ds.Wells()[0].MeasuredAt)
}

func TestPrepareRaw_NoSeasonalColumns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "raw.csv")
	require.NoError(t, writeFile(t, in, "Well_ID,Latitude,Longitude\nW001,21.5,83.2\n"))

	_, err := PrepareRaw(in, filepath.Join(dir, "out.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seasonal")
}

func TestPrepareRaw_MissingCoordinateColumn(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "raw.csv")
	require.NoError(t, writeFile(t, in, "Well_ID,Post-monsoon_2020 (m)\nW001,8.4\n"))

	_, err := PrepareRaw(in, filepath.Join(dir, "out.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Latitude")
}

func TestPrepareRaw_DeterministicOrder(t *testing.T) {
	t.Parallel()

	raw := `Well_ID,Latitude,Longitude,Post-monsoon_2020 (m)
W003,21.70,83.30,12.0
W001,21.50,83.20,8.4
W002,21.60,83.25,10.5
`
	ds, _ := prepare(t, raw)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, "W001", ds.Wells()[0].StationCode)
	assert.Equal(t, "W002", ds.Wells()[1].StationCode)
	assert.Equal(t, "W003", ds.Wells()[2].StationCode)
}
