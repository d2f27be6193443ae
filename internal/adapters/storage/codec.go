package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/teamaster/core/internal/domain/entities"
)

// encodeTeas renders the collection as a JSON array indented with two
// spaces, without HTML escaping and without a trailing newline.
func encodeTeas(teas []entities.Tea) ([]byte, error) {
	if teas == nil {
		teas = []entities.Tea{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(teas); err != nil {
		return nil, fmt.Errorf("failed to encode teas: %w", err)
	}

	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeLineSeparators writes U+2028 and U+2029 as raw runes. The encoder
// always escapes them, even with HTML escaping off.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if seq := data[i:]; len(seq) >= 6 && bytes.HasPrefix(seq, []byte(`\u202`)) && (seq[5] == '8' || seq[5] == '9') {
			if seq[5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		// keep every other escape pair intact
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// decodeTeas parses a JSON array of teas. source names the origin of data
// in the error.
func decodeTeas(source string, data []byte) ([]entities.Tea, error) {
	var teas []entities.Tea
	if err := json.Unmarshal(data, &teas); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", entities.ErrCorruptData, source, err)
	}
	if teas == nil {
		return nil, fmt.Errorf("%w: %s: top level is null, want an array", entities.ErrCorruptData, source)
	}
	return teas, nil
}

func cloneTeas(teas []entities.Tea) []entities.Tea {
	out := make([]entities.Tea, len(teas))
	copy(out, teas)
	return out
}
