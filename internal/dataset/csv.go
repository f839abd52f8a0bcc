// Package dataset loads the reference tables the service reads at startup.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/smartinventory/backend/internal/domain"
)

var (
	shelfLifeItemColumns = []string{"item", "food", "name", "commodity"}
	shelfLifeDaysColumns = []string{"shelf_life_days", "avg_shelf_life", "shelf_life", "days"}
)

// Wastage is the cleaned food loss dataset.
type Wastage struct {
	RawRows int
	Records []domain.WastageRecord
}

// LoadShelfLifeFile reads the shelf-life reference table from path.
func LoadShelfLifeFile(path string) ([]domain.ShelfLifeEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: failed to open shelf life table: %w", err)
	}
	defer f.Close()
	return LoadShelfLife(f)
}

// LoadShelfLife parses shelf-life rows. Item names are lowercased; rows with an
// empty name or a non-numeric day count are skipped, and the first occurrence of
// a duplicate name wins.
func LoadShelfLife(r io.Reader) ([]domain.ShelfLifeEntry, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("dataset: failed to read shelf life table: %w", err)
	}

	itemCol := findColumn(header, shelfLifeItemColumns)
	daysCol := findColumn(header, shelfLifeDaysColumns)
	if itemCol < 0 || daysCol < 0 {
		return nil, fmt.Errorf("dataset: shelf life table needs item and shelf life columns, got %v", header)
	}

	seen := make(map[string]struct{})
	entries := make([]domain.ShelfLifeEntry, 0, len(rows))
	for _, row := range rows {
		name := domain.Normalize(field(row, itemCol))
		if name == "" {
			continue
		}
		days, err := strconv.ParseFloat(strings.TrimSpace(field(row, daysCol)), 64)
		if err != nil {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		entries = append(entries, domain.ShelfLifeEntry{Item: name, Days: int(math.Round(days))})
	}
	return entries, nil
}

// LoadWastageFile reads the food loss dataset from path.
func LoadWastageFile(path string) (Wastage, error) {
	f, err := os.Open(path)
	if err != nil {
		return Wastage{}, fmt.Errorf("dataset: failed to open wastage data: %w", err)
	}
	defer f.Close()
	return LoadWastage(f)
}

// LoadWastage parses and cleans the food loss dataset: rows without a commodity
// or a numeric loss_percentage are dropped and commodity names are lowercased.
func LoadWastage(r io.Reader) (Wastage, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return Wastage{}, fmt.Errorf("dataset: failed to read wastage data: %w", err)
	}

	commodityCol := findColumn(header, []string{"commodity"})
	lossCol := findColumn(header, []string{"loss_percentage"})
	if commodityCol < 0 || lossCol < 0 {
		return Wastage{}, fmt.Errorf("dataset: wastage data needs commodity and loss_percentage columns, got %v", header)
	}
	activityCol := findColumn(header, []string{"activity"})
	stageCol := findColumn(header, []string{"food_supply_stage"})
	treatmentCol := findColumn(header, []string{"treatment"})

	out := Wastage{RawRows: len(rows), Records: make([]domain.WastageRecord, 0, len(rows))}
	for _, row := range rows {
		commodity := domain.Normalize(field(row, commodityCol))
		if commodity == "" {
			continue
		}
		loss, err := strconv.ParseFloat(strings.TrimSpace(field(row, lossCol)), 64)
		if err != nil || math.IsNaN(loss) {
			continue
		}
		out.Records = append(out.Records, domain.WastageRecord{
			Commodity:       commodity,
			LossPercentage:  loss,
			Activity:        strings.TrimSpace(field(row, activityCol)),
			FoodSupplyStage: strings.TrimSpace(field(row, stageCol)),
			Treatment:       strings.TrimSpace(field(row, treatmentCol)),
		})
	}
	return out, nil
}

func readAll(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("empty file")
		}
		return nil, nil, err
	}
	for i, h := range header {
		header[i] = normalizeHeader(h)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return header, rows, nil
}

// normalizeHeader turns "Loss Percentage" into "loss_percentage".
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

func findColumn(header []string, names []string) int {
	for _, name := range names {
		for i, h := range header {
			if h == name {
				return i
			}
		}
	}
	return -1
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
