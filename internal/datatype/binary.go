package datatype

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
)

func ascii(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// base64BinaryType maps to []byte. Decoding is strict (padding required);
// encoding is canonical standard base64.
type base64BinaryType struct{ base }

func (t base64BinaryType) Parse(v string, _ any) (any, error) {
	if !ascii(v) {
		return nil, lexical(t.name, v)
	}
	res, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, lexical(t.name, v)
	}
	return res, nil
}

func (t base64BinaryType) Format(v any, _ any) string {
	b, _ := v.([]byte)
	return base64.StdEncoding.EncodeToString(b)
}

// hexBinaryType maps to []byte. Serialization uppercases the hex digits, so
// round-tripping of lowercase input is limited.
type hexBinaryType struct{ base }

func (t hexBinaryType) Parse(v string, _ any) (any, error) {
	if !ascii(v) {
		return nil, lexical(t.name, v)
	}
	res, err := hex.DecodeString(v)
	if err != nil {
		return nil, lexical(t.name, v)
	}
	return res, nil
}

func (t hexBinaryType) Format(v any, _ any) string {
	b, _ := v.([]byte)
	return strings.ToUpper(hex.EncodeToString(b))
}

func init() {
	register(base64BinaryType{base{name: "base64Binary", example: "YWJj", measured: true}})
	register(base64BinaryType{base{name: "binary", example: "YWJj", measured: true}})
	register(hexBinaryType{base{name: "hexBinary", example: "AB", measured: true}})
}
