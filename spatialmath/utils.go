package spatialmath

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseFloatFields splits up whitespace-delimited numbers, such as a row of a pose file.
func ParseFloatFields(s string) ([]float64, error) {
	slice := strings.Fields(s)
	converted := make([]float64, 0, len(slice))
	for i, value := range slice {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "field %d", i)
		}
		converted = append(converted, f)
	}
	return converted, nil
}
