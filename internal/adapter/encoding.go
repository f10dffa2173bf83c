package adapter

import "encoding/base64"

// Base64 encodes smart query messages and decodes event attributes and data uris.
// Both use the padded standard alphabet.
//
//go:generate mockgen -source=encoding.go -destination=../mocks/encoding.go -package=mocks -mock_names=Base64=MockBase64
type Base64 interface {
	Encode(data []byte) string
	Decode(data string) ([]byte, error)
}

type stdBase64 struct{}

// NewBase64 returns the standard padded codec
func NewBase64() Base64 {
	return stdBase64{}
}

func (stdBase64) Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func (stdBase64) Decode(data string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(data)
}
