// Package ingestion turns the customs exporter's semicolon-delimited CSV
// files into documents matching the index schema.
package ingestion

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// columnMap maps the exporter's Ukrainian headers onto canonical field
// names. Headers outside this map are ignored.
var columnMap = map[string]string{
	"Номер митної декларації":           "declaration_number",
	"Дата оформлення":                   "processing_date",
	"Митниця оформлення":                "customs_office",
	"Код товару":                        "product_code",
	"Опис товару":                       "product_description",
	"Вага нетто, кг":                    "net_weight",
	"Вага брутто, кг":                   "gross_weight",
	"Кількість":                         "quantity",
	"Одиниця виміру":                    "unit",
	"Фактурна варість, валюта контракту": "invoice_value",
	"Країна походження":                 "origin_country",
	"Торговельна марка":                 "trade_mark",
}

// requiredHeaders must be present in every input file.
var requiredHeaders = []string{"Дата оформлення", "Опис товару"}

var numericFields = map[string]bool{
	"net_weight":    true,
	"gross_weight":  true,
	"quantity":      true,
	"invoice_value": true,
}

// Record is one declaration ready for indexing.
type Record map[string]any

// ParseFile reads one exporter CSV file. A leading "custom_1" marker line
// (present in some exports) is skipped.
func ParseFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads exporter CSV from r.
func Parse(r io.Reader) ([]Record, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(16)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if strings.HasPrefix(string(first), "custom_1") {
		if _, err := br.ReadString('\n'); err != nil && err != io.EOF {
			return nil, fmt.Errorf("skipping marker line: %w", err)
		}
	}

	reader := csv.NewReader(br)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := map[int]string{}
	present := map[string]bool{}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
		if field, ok := columnMap[name]; ok {
			columns[i] = field
			present[name] = true
		}
	}

	var missing []string
	for _, name := range requiredHeaders {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", line, err)
		}

		rec := Record{}
		for i, value := range row {
			field, ok := columns[i]
			if !ok {
				continue
			}
			value = strings.TrimSpace(value)
			switch {
			case numericFields[field]:
				rec[field] = parseNumber(value)
			case field == "processing_date":
				date, err := parseDate(value)
				if err != nil {
					return nil, fmt.Errorf("row %d: %w", line, err)
				}
				rec[field] = date
			default:
				rec[field] = value
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseNumber coerces exporter numerics: empty means zero, comma decimal
// separators and space grouping are accepted.
func parseNumber(s string) float64 {
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n
}

// parseDate coerces exporter dates (dd.mm.yy or dd.mm.yyyy) into ISO form.
// Already-ISO values pass through.
func parseDate(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty processing date")
	}
	for _, layout := range []string{"02.01.06", "02.01.2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}
