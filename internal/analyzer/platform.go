package analyzer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/doerun/internal/doe"
)

// Observer CSV column names.
const (
	ColName        = "Platform_Name"
	ColType        = "Platform_Type"
	ColSide        = "Side"
	ColLatitude    = "Latitude"
	ColLongitude   = "Longitude"
	ColAltitude    = "Altitude_ft"
	ColSensorRange = "Sensor_Range_NM"
)

var requiredColumns = []string{ColName, ColType, ColSide, ColLatitude, ColLongitude, ColAltitude, ColSensorRange}

// Platform is one observed platform position.
type Platform struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Side          string  `json:"side"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	AltitudeFt    float64 `json:"altitude_ft"`
	SensorRangeNM float64 `json:"sensor_range_nm"`
}

// Distance returns the flat-earth distance in nautical miles between two
// positions given in decimal degrees.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dlat := (lat2 - lat1) * 60.0
	meanLat := (lat1 + lat2) / 2.0
	dlon := (lon2 - lon1) * 60.0 * math.Cos(meanLat*math.Pi/180.0)
	return math.Sqrt(dlat*dlat + dlon*dlon)
}

// LoadPlatforms reads an observer CSV file.
func LoadPlatforms(path string) ([]Platform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, doe.NewMalformedInputError(path, "cannot open observer file", err)
	}
	defer f.Close()
	return ParsePlatforms(f, path)
}

// ParsePlatforms reads observer rows from r. A repeated platform name
// replaces the earlier row. Platforms are returned sorted by name.
func ParsePlatforms(r io.Reader, source string) ([]Platform, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, doe.NewMalformedInputError(source, "observer file is empty", nil)
	}
	if err != nil {
		return nil, doe.NewMalformedInputError(source, "reading header", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if i == 0 {
			col = strings.TrimPrefix(col, "\uFEFF")
		}
		index[col] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, doe.NewMalformedInputError(source, fmt.Sprintf("missing column %s", col), nil)
		}
	}

	byName := make(map[string]Platform)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, doe.NewMalformedInputError(source, fmt.Sprintf("row %d", line), err)
		}

		p, err := parseRow(record, index)
		if err != nil {
			return nil, doe.NewMalformedInputError(source, fmt.Sprintf("row %d", line), err)
		}
		byName[p.Name] = p
	}

	platforms := make([]Platform, 0, len(byName))
	for _, p := range byName {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i].Name < platforms[j].Name })
	return platforms, nil
}

func parseRow(record []string, index map[string]int) (Platform, error) {
	cell := func(col string) (string, error) {
		i := index[col]
		if i >= len(record) {
			return "", fmt.Errorf("missing value for %s", col)
		}
		return strings.TrimSpace(record[i]), nil
	}
	number := func(col string) (float64, error) {
		s, err := cell(col)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", col, err)
		}
		return v, nil
	}

	var p Platform
	var err error
	if p.Name, err = cell(ColName); err != nil {
		return p, err
	}
	if p.Name == "" {
		return p, errors.New("empty platform name")
	}
	if p.Type, err = cell(ColType); err != nil {
		return p, err
	}
	if p.Side, err = cell(ColSide); err != nil {
		return p, err
	}
	if p.Latitude, err = number(ColLatitude); err != nil {
		return p, err
	}
	if p.Longitude, err = number(ColLongitude); err != nil {
		return p, err
	}
	if p.AltitudeFt, err = number(ColAltitude); err != nil {
		return p, err
	}
	if p.SensorRangeNM, err = number(ColSensorRange); err != nil {
		return p, err
	}
	return p, nil
}
