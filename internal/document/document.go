// Package document produces the synthetic payloads written by a load run.
//
// A [Generator] returns a JSON-serializable value whose encoded size is at least the
// requested size. Generators are not safe for concurrent use; every worker builds its
// own from a [Factory] so random draws stay independent.
package document

import (
	"encoding/json"
)

// Generator builds one document of at least size bytes once JSON encoded.
type Generator interface {
	Generate(size int) interface{}
}

// Factory builds a Generator seeded for one worker.
type Factory func(seed int64) (Generator, error)

// Size returns the length of doc's JSON encoding, or -1 if it cannot be encoded.
func Size(doc interface{}) int {
	data, err := json.Marshal(doc)
	if err != nil {
		return -1
	}
	return len(data)
}

// Padding doubles seed until it is at least shortfall characters long. The result is
// not trimmed.
func Padding(seed string, shortfall int) string {
	if seed == "" {
		seed = "x"
	}
	padding := seed
	for len(padding) < shortfall {
		padding += padding
	}
	return padding
}

// NewFactory returns the person generator factory, or a feeder generator factory when
// feederPath is set.
func NewFactory(feederPath, feederType string) (Factory, error) {
	if feederPath == "" {
		return func(seed int64) (Generator, error) {
			return NewPersonGenerator(seed), nil
		}, nil
	}
	records, err := LoadRecords(feederPath, feederType)
	if err != nil {
		return nil, err
	}
	return func(seed int64) (Generator, error) {
		return NewFeederGenerator(records, seed)
	}, nil
}
