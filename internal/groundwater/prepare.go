package groundwater

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// seasonRe matches raw Atal Jal seasonal columns such as
// "Pre-monsoon_2015 (meters below ground level)".
var seasonRe = regexp.MustCompile(`(?i)^(Pre|Post)-monsoon_(\d{4})`)

// raw export column names.
const (
	rawColLat  = "Latitude"
	rawColLon  = "Longitude"
	rawColWell = "Well_ID"
)

type seasonalColumn struct {
	index  int
	season string // "Pre" or "Post"
	year   int
}

func (c seasonalColumn) label() string {
	return c.season + "-monsoon_" + strconv.Itoa(c.year)
}

// seasonOrder ranks seasonal columns most-recent first: higher year wins,
// Post-monsoon before Pre-monsoon within the same year.
func seasonOrder(cols []seasonalColumn) []seasonalColumn {
	ordered := make([]seasonalColumn, len(cols))
	copy(ordered, cols)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].year != ordered[j].year {
			return ordered[i].year > ordered[j].year
		}
		return ordered[i].season == "Post" && ordered[j].season == "Pre"
	})
	return ordered
}

// PrepareRaw cleans a raw Atal Jal groundwater export (CSV or XLSX) into the
// canonical well CSV: one row per station carrying its most recent non-null
// seasonal water level. Returns the number of wells written.
func PrepareRaw(inputPath, outputPath string) (int, error) {
	rows, err := readRawTable(inputPath)
	if err != nil {
		return 0, err
	}
	if len(rows) < 2 {
		return 0, eris.Errorf("groundwater: raw export %s has no data rows", inputPath)
	}

	header := rows[0]
	col := make(map[string]int, len(header))
	var seasonal []seasonalColumn
	for i, name := range header {
		name = strings.TrimSpace(name)
		col[name] = i
		if m := seasonRe.FindStringSubmatch(name); m != nil {
			year, _ := strconv.Atoi(m[2])
			season := "Pre"
			if strings.EqualFold(m[1], "post") {
				season = "Post"
			}
			seasonal = append(seasonal, seasonalColumn{index: i, season: season, year: year})
		}
	}
	if len(seasonal) == 0 {
		return 0, eris.New("groundwater: no seasonal water level columns found")
	}
	ordered := seasonOrder(seasonal)

	latIdx, ok := col[rawColLat]
	if !ok {
		return 0, eris.Errorf("groundwater: missing column %q", rawColLat)
	}
	lonIdx, ok := col[rawColLon]
	if !ok {
		return 0, eris.Errorf("groundwater: missing column %q", rawColLon)
	}
	wellIdx, hasWell := col[rawColWell]

	// Keep the most recent record per station. Stations without an id are
	// keyed by rounded coordinates instead.
	type cleaned struct {
		well Well
		rank int // position in ordered; lower is more recent
	}
	byStation := make(map[string]cleaned)

	for _, record := range rows[1:] {
		get := func(i int) string {
			if i < 0 || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		lat, err := strconv.ParseFloat(get(latIdx), 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(get(lonIdx), 64)
		if err != nil {
			continue
		}

		value, rank, label := latestSeasonal(record, ordered)
		if rank < 0 {
			continue
		}

		station := ""
		if hasWell {
			station = get(wellIdx)
		}
		key := station
		if key == "" {
			key = strconv.FormatFloat(lat, 'f', 5, 64) + "," + strconv.FormatFloat(lon, 'f', 5, 64)
		}

		w := Well{StationCode: station, Lat: lat, Lon: lon, DepthMBGL: value, MeasuredAt: label}
		if prev, ok := byStation[key]; !ok || rank < prev.rank {
			byStation[key] = cleaned{well: w, rank: rank}
		}
	}

	if len(byStation) == 0 {
		return 0, eris.New("groundwater: no wells with valid water levels found")
	}

	wells := make([]Well, 0, len(byStation))
	for _, c := range byStation {
		wells = append(wells, c.well)
	}
	sort.Slice(wells, func(i, j int) bool {
		if wells[i].StationCode != wells[j].StationCode {
			return wells[i].StationCode < wells[j].StationCode
		}
		return wells[i].Lat < wells[j].Lat
	})

	if err := writeCanonical(outputPath, wells); err != nil {
		return 0, err
	}

	zap.L().Info("groundwater: raw export cleaned",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("wells", len(wells)),
	)
	return len(wells), nil
}

// latestSeasonal picks the most recent parseable seasonal value in the row.
func latestSeasonal(record []string, ordered []seasonalColumn) (float64, int, string) {
	for rank, sc := range ordered {
		if sc.index >= len(record) {
			continue
		}
		raw := strings.TrimSpace(record[sc.index])
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		return v, rank, sc.label()
	}
	return 0, -1, ""
}

// readRawTable reads the raw export as rows of cells. CSV input is decoded
// from Latin-1, which is how the disclosed Atal Jal files are encoded.
func readRawTable(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readRawXLSX(path)
	default:
		return readRawCSV(path)
	}
}

func readRawCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "groundwater: open raw export %s", path)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(f))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "groundwater: read raw CSV row")
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readRawXLSX(path string) ([][]string, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "groundwater: open raw workbook %s", path)
	}
	if len(file.Sheets) == 0 {
		return nil, eris.Errorf("groundwater: workbook %s has no sheets", path)
	}

	sheet := file.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// writeCanonical writes the cleaned wells in canonical CSV layout.
func writeCanonical(path string, wells []Well) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "groundwater: create %s", path)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(canonicalHeader); err != nil {
		return eris.Wrap(err, "groundwater: write header")
	}
	for _, well := range wells {
		record := []string{
			well.StationCode,
			strconv.FormatFloat(well.Lat, 'f', -1, 64),
			strconv.FormatFloat(well.Lon, 'f', -1, 64),
			strconv.FormatFloat(well.DepthMBGL, 'f', -1, 64),
			well.MeasuredAt,
		}
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "groundwater: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "groundwater: flush")
	}
	return f.Close()
}
