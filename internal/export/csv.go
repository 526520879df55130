package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

const (
	utf8BOM      = "\xef\xbb\xbf"
	csvOptionSep = "; \n"
)

// CSV renders t with a UTF-8 byte order mark so spreadsheet apps detect the encoding.
func CSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header()); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range t.Rows {
		record := make([]string, 0, len(r.Values)+2)
		record = append(record, r.Email, r.Date.Format(DateLayout))
		for _, v := range r.Values {
			record = append(record, strings.Join(v, csvOptionSep))
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
