package objref

import (
	"encoding/json"
	"fmt"

	"github.com/morezero/host-interop/pkg/version"
)

// DataEncoding is how the JSON document is carried in AdvancedRef.Data.
type DataEncoding int

const (
	// EncodingEmbedded escapes the JSON document as the body of a JSON string,
	// so it survives hosts that parse the outer payload twice.
	EncodingEmbedded DataEncoding = iota
	// EncodingPlain carries the JSON document unchanged.
	EncodingPlain
)

// EncodingForVersion returns the data encoding a protocol version expects.
func EncodingForVersion(v string) DataEncoding {
	if version.Compare(v, version.V2019_05) >= 0 {
		return EncodingPlain
	}
	return EncodingEmbedded
}

func encodeData(fields map[string]string, enc DataEncoding) (string, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("%s - failed to marshal data: %w", logPrefix, err)
	}
	if enc == EncodingPlain {
		return string(raw), nil
	}
	return encodeEmbeddedJSON(string(raw))
}

func decodeData(data string, enc DataEncoding) ([]byte, error) {
	if enc == EncodingPlain {
		return []byte(data), nil
	}
	s, err := decodeEmbeddedJSON(data)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// encodeEmbeddedJSON returns s escaped as the inside of a JSON string literal.
func encodeEmbeddedJSON(s string) (string, error) {
	quoted, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("%s - failed to embed data: %w", logPrefix, err)
	}
	return string(quoted[1 : len(quoted)-1]), nil
}

func decodeEmbeddedJSON(s string) (string, error) {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return "", fmt.Errorf("%s - failed to unembed data: %w", logPrefix, err)
	}
	return out, nil
}
