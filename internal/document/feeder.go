package document

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v6"
)

// Record is one seed row with named fields.
type Record map[string]string

// LoadRecords reads seed records from a CSV or JSON file. An empty kind is inferred
// from the file extension.
func LoadRecords(path, kind string) ([]Record, error) {
	if kind == "" {
		kind = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch strings.ToLower(kind) {
	case "csv":
		return loadCSV(path)
	case "json":
		return loadJSON(path)
	default:
		return nil, fmt.Errorf("unsupported feeder type %q", kind)
	}
}

// loadCSV treats the first row as the header containing field names.
func loadCSV(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV file must have at least one header row and one data row")
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, expected %d", i+2, len(row), len(header))
		}
		record := make(Record, len(header))
		for j, field := range header {
			record[field] = row[j]
		}
		records = append(records, record)
	}
	return records, nil
}

// loadJSON expects an array of objects. Values are stringified.
func loadJSON(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open JSON file: %w", err)
	}
	defer file.Close()

	var raw []map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("JSON file contains empty array")
	}

	records := make([]Record, 0, len(raw))
	for i, obj := range raw {
		if len(obj) == 0 {
			return nil, fmt.Errorf("record %d is empty", i)
		}
		record := make(Record, len(obj))
		for key, value := range obj {
			record[key] = fmt.Sprintf("%v", value)
		}
		records = append(records, record)
	}
	return records, nil
}

// FeederGenerator hands out seed records in round-robin order, padding each to the
// requested size. It is safe for concurrent use.
type FeederGenerator struct {
	records []Record
	faker   *gofakeit.Faker

	mu    sync.Mutex
	index int
}

func NewFeederGenerator(records []Record, seed int64) (*FeederGenerator, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("feeder generator requires at least one record")
	}
	return &FeederGenerator{records: records, faker: gofakeit.New(seed)}, nil
}

// Generate returns the next record as a document of at least size bytes.
func (g *FeederGenerator) Generate(size int) interface{} {
	g.mu.Lock()
	record := g.records[g.index]
	g.index = (g.index + 1) % len(g.records)
	word := g.faker.Word()
	g.mu.Unlock()

	doc := make(map[string]interface{}, len(record)+1)
	for k, v := range record {
		doc[k] = v
	}
	if _, taken := doc["payload"]; taken {
		return doc
	}
	base := Size(doc)
	if base >= size {
		return doc
	}
	doc["payload"] = Padding(word, size-base)
	return doc
}

// Len returns the number of seed records.
func (g *FeederGenerator) Len() int {
	return len(g.records)
}
