package wire

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Change is a single cell ownership transition (row, col, owner), §3.
type Change struct {
	Row   int
	Col   int
	Owner int
}

// FormatCellList serializes changes into the compact ASCII form
// "r,c,o;r,c,o;…" with no trailing separator. An empty slice formats to
// the empty string.
func FormatCellList(changes []Change) string {
	if len(changes) == 0 {
		return ""
	}
	var b strings.Builder
	for i, c := range changes {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.Itoa(c.Row))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(c.Col))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(c.Owner))
	}
	return b.String()
}

// ParseCellList parses the compact ASCII form back into a slice of
// changes. Parsing is strict: any malformed triple fails the whole list.
// The empty string parses to a nil slice.
func ParseCellList(s string) ([]Change, error) {
	if s == "" {
		return nil, nil
	}
	triples := strings.Split(s, ";")
	out := make([]Change, 0, len(triples))
	for _, t := range triples {
		if t == "" {
			return nil, errors.Wrap(ErrMalformedPayload, "empty triple in cell-list")
		}
		parts := strings.Split(t, ",")
		if len(parts) != 3 {
			return nil, errors.Wrapf(ErrMalformedPayload, "triple %q does not have 3 fields", t)
		}
		row, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedPayload, "bad row in %q", t)
		}
		col, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedPayload, "bad col in %q", t)
		}
		owner, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedPayload, "bad owner in %q", t)
		}
		if row < 0 || col < 0 || owner < 0 {
			return nil, errors.Wrapf(ErrMalformedPayload, "negative field in %q", t)
		}
		out = append(out, Change{Row: row, Col: col, Owner: owner})
	}
	return out, nil
}
