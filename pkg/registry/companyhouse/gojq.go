package companyhouse

import (
	"github.com/itchyny/gojq"
)

// extractStrings runs a gojq query against a decoded JSON value and
// collects every string result, used as a defensive fallback when the
// typed officersResponse shape misses a field the live API actually
// returned (Companies House's schema drifts more than its docs admit).
func extractStrings(query string, decoded interface{}) ([]string, error) {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, err
	}
	iter := parsed.Run(decoded)

	var results []string
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return results, err
		}
		if s, ok := v.(string); ok {
			results = append(results, s)
		}
	}
	return results, nil
}
