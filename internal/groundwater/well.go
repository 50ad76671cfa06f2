// Package groundwater loads the cleaned well dataset and matches claims to
// their nearest wells by great-circle distance.
package groundwater

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Well is one groundwater observation station. Immutable once loaded.
type Well struct {
	StationCode string
	Lat         float64
	Lon         float64
	DepthMBGL   float64 // water level in meters below ground level
	MeasuredAt  string  // season label, e.g. "Post-monsoon_2019"
}

// Dataset is the process-wide read-only well set, loaded once at startup.
type Dataset struct {
	wells []Well
}

// Wells returns the loaded records. The slice must not be mutated.
func (d *Dataset) Wells() []Well {
	return d.wells
}

// Len returns the number of loaded wells.
func (d *Dataset) Len() int {
	return len(d.wells)
}

// canonical CSV header, as produced by PrepareRaw.
var canonicalHeader = []string{"StationCode", "Lat", "Lon", "WaterLevel_m_bgl", "Datetime"}

// Load reads the canonical well CSV. A missing or unreadable file is a
// startup failure: the matcher cannot operate without the dataset.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "groundwater: open well dataset %s", path)
	}
	defer func() { _ = f.Close() }()

	ds, err := Read(f)
	if err != nil {
		return nil, eris.Wrapf(err, "groundwater: load well dataset %s", path)
	}

	zap.L().Info("groundwater: well dataset loaded",
		zap.String("path", path),
		zap.Int("wells", ds.Len()),
	)
	return ds, nil
}

// Read parses canonical well CSV records. Rows with unparseable coordinates
// or depths are skipped, not fatal; an entirely empty dataset is an error.
func Read(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "groundwater: read header")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, want := range canonicalHeader[:4] {
		if _, ok := col[want]; !ok {
			return nil, eris.Errorf("groundwater: missing column %q", want)
		}
	}

	var wells []Well
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "groundwater: read row")
		}

		w, ok := parseRow(record, col)
		if !ok {
			skipped++
			continue
		}
		wells = append(wells, w)
	}

	if skipped > 0 {
		zap.L().Debug("groundwater: skipped malformed rows", zap.Int("skipped", skipped))
	}
	if len(wells) == 0 {
		return nil, eris.New("groundwater: dataset contains no usable wells")
	}
	return &Dataset{wells: wells}, nil
}

func parseRow(record []string, col map[string]int) (Well, bool) {
	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	lat, err := strconv.ParseFloat(field("Lat"), 64)
	if err != nil {
		return Well{}, false
	}
	lon, err := strconv.ParseFloat(field("Lon"), 64)
	if err != nil {
		return Well{}, false
	}
	depth, err := strconv.ParseFloat(field("WaterLevel_m_bgl"), 64)
	if err != nil {
		return Well{}, false
	}

	return Well{
		StationCode: field("StationCode"),
		Lat:         lat,
		Lon:         lon,
		DepthMBGL:   depth,
		MeasuredAt:  field("Datetime"),
	}, true
}
