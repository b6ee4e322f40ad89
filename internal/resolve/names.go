package resolve

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadNames reads drug names from the first column of a headerless CSV
// file. Rows may have any number of columns. Blank names are skipped and
// repeated names keep their first position.
func ReadNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open names file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseNames(f)
}

// ParseNames is ReadNames over an open reader
func ParseNames(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var names []string
	seen := make(map[string]bool)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read names: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		name := strings.TrimSpace(strings.TrimPrefix(record[0], "\ufeff"))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}
