package ast

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// cborEncMode uses canonical mode so equal trees encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("ast: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// EncodeCBOR serializes the Tree form of n to CBOR bytes.
func EncodeCBOR(n Node) ([]byte, error) {
	return cborEncMode.Marshal(Encode(n))
}

// DecodeCBOR deserializes a Tree from CBOR bytes.
func DecodeCBOR(data []byte) (*Tree, error) {
	var t Tree
	if err := cbor.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("ast: unmarshal tree: %w", err)
	}
	return &t, nil
}

// EncodeYAML serializes the Tree form of n to YAML.
func EncodeYAML(n Node) ([]byte, error) {
	out, err := yaml.Marshal(Encode(n))
	if err != nil {
		return nil, fmt.Errorf("ast: marshal yaml: %w", err)
	}
	return out, nil
}

// DecodeYAML deserializes a Tree from YAML.
func DecodeYAML(data []byte) (*Tree, error) {
	var t Tree
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("ast: unmarshal yaml: %w", err)
	}
	return &t, nil
}
