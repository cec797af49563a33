package analyzer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/doerun/internal/doe"
)

// Output file names, written next to the observer CSV.
const (
	AnalysisFileName = "platform_distance_analysis.csv"
	MatrixFileName   = "platform_distance_matrix.csv"
)

// Pair is the distance from one platform to another.
type Pair struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	NM      float64 `json:"distance_nm"`
	InRange bool    `json:"in_range"`
}

// Threat is a BLUE platform inside a RED platform's sensor range.
type Threat struct {
	Red      string  `json:"red"`
	RangeNM  float64 `json:"sensor_range_nm"`
	Blue     string  `json:"blue"`
	NM       float64 `json:"distance_nm"`
	MarginNM float64 `json:"margin_nm"`
}

// Analysis holds all derived data for a set of platforms.
type Analysis struct {
	Platforms []Platform `json:"platforms"`
	Pairs     []Pair     `json:"pairs"`
	Threats   []Threat   `json:"threats"`

	byName map[string]Platform
}

// Analyze computes pairwise distances and RED to BLUE threats.
// Pairs are grouped by source platform (name order) and sorted by distance;
// threats likewise per RED platform.
func Analyze(platforms []Platform) *Analysis {
	sorted := append([]Platform(nil), platforms...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	a := &Analysis{
		Platforms: sorted,
		Pairs:     []Pair{},
		Threats:   []Threat{},
		byName:    make(map[string]Platform, len(sorted)),
	}
	for _, p := range sorted {
		a.byName[p.Name] = p
	}

	for _, from := range sorted {
		var pairs []Pair
		for _, to := range sorted {
			if to.Name == from.Name {
				continue
			}
			d := Distance(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
			pairs = append(pairs, Pair{
				From:    from.Name,
				To:      to.Name,
				NM:      d,
				InRange: from.SensorRangeNM > 0 && d <= from.SensorRangeNM,
			})
		}
		sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].NM < pairs[j].NM })
		a.Pairs = append(a.Pairs, pairs...)
	}

	for _, red := range sorted {
		if !strings.EqualFold(red.Side, "red") {
			continue
		}
		var threats []Threat
		for _, blue := range sorted {
			if !strings.EqualFold(blue.Side, "blue") || blue.Name == red.Name {
				continue
			}
			d := Distance(red.Latitude, red.Longitude, blue.Latitude, blue.Longitude)
			if d <= red.SensorRangeNM {
				threats = append(threats, Threat{
					Red:      red.Name,
					RangeNM:  red.SensorRangeNM,
					Blue:     blue.Name,
					NM:       d,
					MarginNM: red.SensorRangeNM - d,
				})
			}
		}
		sort.SliceStable(threats, func(i, j int) bool { return threats[i].NM < threats[j].NM })
		a.Threats = append(a.Threats, threats...)
	}

	return a
}

// RenderReport returns the three-section distance analysis.
func (a *Analysis) RenderReport() string {
	lines := []string{
		"PLATFORM SUMMARY",
		"Platform_Name,Type,Side,Latitude,Longitude,Altitude_ft,Sensor_Range_nm",
	}
	for _, p := range a.Platforms {
		lines = append(lines, fmt.Sprintf("%s,%s,%s,%.6f,%.6f,%.1f,%.1f",
			p.Name, p.Type, p.Side, p.Latitude, p.Longitude, p.AltitudeFt, p.SensorRangeNM))
	}

	lines = append(lines,
		"",
		"DISTANCE ANALYSIS BY PLATFORM",
		"Platform_1,Platform_2,Distance_nm,Platform_2_Type,Platform_2_Side,In_Range",
	)
	for _, pair := range a.Pairs {
		to := a.byName[pair.To]
		flag := "NO"
		if pair.InRange {
			flag = "YES"
		}
		lines = append(lines, fmt.Sprintf("%s,%s,%.2f,%s,%s,%s", pair.From, pair.To, pair.NM, to.Type, to.Side, flag))
	}

	lines = append(lines,
		"",
		"THREAT ANALYSIS (RED can detect BLUE)",
		"RED_Platform,RED_Sensor_Range_nm,BLUE_Platform,Distance_nm,Detection_Margin_nm",
	)
	for _, t := range a.Threats {
		lines = append(lines, fmt.Sprintf("%s,%.1f,%s,%.2f,%.2f", t.Red, t.RangeNM, t.Blue, t.NM, t.MarginNM))
	}

	return strings.Join(lines, "\n")
}

// RenderMatrix returns the square distance matrix with platforms in name order.
func (a *Analysis) RenderMatrix() string {
	header := []string{"Platform"}
	for _, p := range a.Platforms {
		header = append(header, p.Name)
	}
	lines := []string{strings.Join(header, ",")}

	for _, from := range a.Platforms {
		row := []string{from.Name}
		for _, to := range a.Platforms {
			if from.Name == to.Name {
				row = append(row, "0.00")
				continue
			}
			row = append(row, fmt.Sprintf("%.2f", Distance(from.Latitude, from.Longitude, to.Latitude, to.Longitude)))
		}
		lines = append(lines, strings.Join(row, ","))
	}
	return strings.Join(lines, "\n")
}

// Result names the files written by Run.
type Result struct {
	Platforms  int    `json:"platforms"`
	ReportPath string `json:"report_path"`
	MatrixPath string `json:"matrix_path"`
}

// Run loads the observer CSV at path, analyzes it and writes both output
// files into the same directory.
func Run(path string, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	platforms, err := LoadPlatforms(path)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded platforms", "count", len(platforms), "source", path)

	a := Analyze(platforms)
	logger.Debug("calculated distances", "pairs", len(a.Pairs)/2, "threats", len(a.Threats))

	dir := filepath.Dir(path)
	res := &Result{
		Platforms:  len(platforms),
		ReportPath: filepath.Join(dir, AnalysisFileName),
		MatrixPath: filepath.Join(dir, MatrixFileName),
	}

	if err := os.WriteFile(res.ReportPath, []byte(a.RenderReport()), 0644); err != nil {
		return nil, doe.NewWriteError(0, res.ReportPath, err)
	}
	if err := os.WriteFile(res.MatrixPath, []byte(a.RenderMatrix()), 0644); err != nil {
		return nil, doe.NewWriteError(0, res.MatrixPath, err)
	}
	logger.Info("wrote distance analysis", "report", res.ReportPath, "matrix", res.MatrixPath)
	return res, nil
}
