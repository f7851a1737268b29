package rosettascripts

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/protflow/pkg/domain"
)

const scoreMarker = "SCORE:"

// ParseScorefile reads a Rosetta silent-style score file.
//
// The header is the first line starting with "SCORE:". Lines whose field count
// differs from the header are dropped and counted in discarded, as are repeated
// header lines written by concurrent processes. Only the first row of each
// description is kept. Numeric fields become float64.
func ParseScorefile(path string) (t *domain.Table, discarded int, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("%w: rosetta score file %s", domain.ErrNotFound, path)
		}
		return nil, 0, err
	}
	defer f.Close()

	var header []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] != scoreMarker {
			continue
		}
		if header == nil {
			header = fields
			t = domain.NewTable(header[1:]...)
			continue
		}
		if equalFields(fields, header) {
			continue
		}
		if len(fields) != len(header) {
			discarded++
			continue
		}
		row := make(domain.Row, len(header)-1)
		for i := 1; i < len(header); i++ {
			row[header[i]] = parseField(fields[i])
		}
		desc := domain.CellString(row[domain.ColResultDescription])
		if seen[desc] {
			continue
		}
		seen[desc] = true
		t.AppendRow(row)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read rosetta score file: %w", err)
	}
	if header == nil {
		return nil, 0, &domain.SchemaError{Reason: fmt.Sprintf("rosetta score file %s has no SCORE: header", path)}
	}
	if !t.HasColumn(domain.ColResultDescription) {
		return nil, 0, &domain.SchemaError{Reason: fmt.Sprintf("rosetta score file %s has no description column", path)}
	}
	return t, discarded, nil
}

// parseField turns numeric fields into floats. Rosetta writes "nan" and "inf"
// for broken terms; those end up as missing cells once stored in a table.
func parseField(s string) any {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}

func equalFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Reindex maps a raw Rosetta output name to the pose naming scheme:
// r0003_pose_0001 becomes pose_0003.
func Reindex(raw string) (string, error) {
	parts := strings.Split(raw, "_")
	if len(parts) < 3 || !strings.HasPrefix(parts[0], "r") {
		return "", fmt.Errorf("%w: unexpected rosetta output name %q", domain.ErrInvalidArgument, raw)
	}
	return strings.Join(parts[1:len(parts)-1], "_") + "_" + strings.TrimPrefix(parts[0], "r"), nil
}
