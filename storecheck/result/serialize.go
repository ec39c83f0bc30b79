package result

import "encoding/json"

// Summary holds batch counts. It is computed by the reporting layer.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Summarize counts passed and failed pages.
func Summarize(results []PageTestResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// MarshalPage serialises a PageTestResult to JSON.
func MarshalPage(r *PageTestResult) ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalPage deserialises a PageTestResult from JSON.
func UnmarshalPage(data []byte) (*PageTestResult, error) {
	var r PageTestResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
