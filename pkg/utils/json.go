package utils

import (
	"github.com/ohler55/ojg/oj"
)

// JSONString renders v as an indented JSON document.
// The round trip through the marshaler keeps the struct tags effective.
func JSONString(v any) string {
	data, err := oj.Marshal(v)
	if err != nil {
		return oj.JSON(v, 2)
	}
	parsed, err := oj.Parse(data)
	if err != nil {
		return oj.JSON(v, 2)
	}
	return oj.JSON(parsed, 2)
}
