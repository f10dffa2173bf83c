package adapter

import "encoding/json"

// JSON marshals chain payloads, smart queries and ledger attributes
//
//go:generate mockgen -source=json.go -destination=../mocks/json.go -package=mocks -mock_names=JSON=MockJSON
type JSON interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

type stdJSON struct{}

// NewJSON returns the encoding/json backed implementation
func NewJSON() JSON {
	return stdJSON{}
}

func (stdJSON) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (stdJSON) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
