package stream

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/arolang/aro/value"
)

// CSVConfig holds the configurable RFC 4180 options of spec §4.8.
type CSVConfig struct {
	Delimiter rune // default ','
	Quote     rune // default '"'
	Header    bool // default true
	Trim      bool
}

// DefaultCSVConfig returns the spec's defaults: comma delimiter, double
// quote, header row present.
func DefaultCSVConfig() CSVConfig {
	return CSVConfig{Delimiter: ',', Quote: '"', Header: true}
}

// normalizeHeader implements spec §4.8's header normalization: lowercase,
// spaces/periods replaced by hyphens, collapsed repeats.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	var b strings.Builder
	lastHyphen := false
	for _, r := range h {
		if r == ' ' || r == '.' {
			r = '-'
		}
		if r == '-' {
			if lastHyphen {
				continue
			}
			lastHyphen = true
		} else {
			lastHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parseCSVRecords hand-rolls RFC 4180 parsing with a configurable quote
// character (the stdlib encoding/csv package hardcodes '"' and cannot
// support spec §4.8's "'" option, so this path is justified as a stdlib-free
// implementation in the design ledger).
func parseCSVRecords(r io.Reader, cfg CSVConfig) ([][]string, error) {
	br := bufio.NewReader(r)
	var records [][]string
	var field strings.Builder
	var record []string
	inQuotes := false
	sawAnyChar := false

	flushField := func() {
		s := field.String()
		if cfg.Trim {
			s = strings.TrimSpace(s)
		}
		record = append(record, s)
		field.Reset()
	}
	flushRecord := func() {
		flushField()
		records = append(records, record)
		record = nil
		sawAnyChar = false
	}

	for {
		ch, _, err := br.ReadRune()
		if err == io.EOF {
			if sawAnyChar || field.Len() > 0 || len(record) > 0 {
				flushRecord()
			}
			break
		}
		if err != nil {
			return nil, err
		}
		sawAnyChar = true

		switch {
		case inQuotes:
			if ch == cfg.Quote {
				next, _, perr := br.ReadRune()
				if perr == nil && next == cfg.Quote {
					field.WriteRune(cfg.Quote) // "" -> "
				} else {
					if perr == nil {
						br.UnreadRune()
					}
					inQuotes = false
				}
			} else {
				field.WriteRune(ch)
			}
		case ch == cfg.Quote && field.Len() == 0:
			inQuotes = true
		case ch == cfg.Delimiter:
			flushField()
		case ch == '\n':
			flushRecord()
		case ch == '\r':
			// swallow; \r\n handled by the following \n
		default:
			field.WriteRune(ch)
		}
	}
	return records, nil
}

// FromCSV constructs a Stream of Map values from CSV content, applying
// header normalization and typed auto-coercion per cell (spec §4.8, §8
// scenario S5).
func FromCSV(content string, cfg CSVConfig) (*Stream, error) {
	records, err := parseCSVRecords(strings.NewReader(content), cfg)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return Empty(), nil
	}

	var headers []string
	dataStart := 0
	if cfg.Header {
		headers = make([]string, len(records[0]))
		for i, h := range records[0] {
			headers[i] = normalizeHeader(h)
		}
		dataStart = 1
	} else {
		if len(records) > 0 {
			headers = make([]string, len(records[0]))
			for i := range headers {
				headers[i] = indexHeaderName(i)
			}
		}
	}

	rows := make([]value.Value, 0, len(records)-dataStart)
	for _, rec := range records[dataStart:] {
		m := make(map[string]value.Value, len(headers))
		for i, cell := range rec {
			name := indexHeaderName(i)
			if i < len(headers) {
				name = headers[i]
			}
			m[name] = value.AutoCoerceCell(cell)
		}
		rows = append(rows, value.Map(m))
	}
	return From(rows), nil
}

func indexHeaderName(i int) string {
	return "field-" + strconv.Itoa(i)
}

// SerializeCSV re-serializes a list of Map values into RFC 4180 CSV using
// cfg, with a header row of the first row's keys in sorted order (used by the
// round-trip property of spec §8). Keys that appear only in later rows are
// not written.
func SerializeCSV(rows []value.Value, cfg CSVConfig) string {
	if len(rows) == 0 {
		return ""
	}
	keys := value.SortedKeys(asMapOrEmpty(rows[0]))
	var b strings.Builder
	if cfg.Header {
		writeCSVRecord(&b, keys, cfg)
	}
	for _, row := range rows {
		m := asMapOrEmpty(row)
		cells := make([]string, len(keys))
		for i, k := range keys {
			cells[i] = m[k].String()
		}
		writeCSVRecord(&b, cells, cfg)
	}
	return b.String()
}

func asMapOrEmpty(v value.Value) map[string]value.Value {
	m, ok := asMap(v)
	if !ok {
		return map[string]value.Value{}
	}
	return m
}

func writeCSVRecord(b *strings.Builder, cells []string, cfg CSVConfig) {
	for i, c := range cells {
		if i > 0 {
			b.WriteRune(cfg.Delimiter)
		}
		if strings.ContainsRune(c, cfg.Delimiter) || strings.ContainsRune(c, cfg.Quote) || strings.ContainsAny(c, "\n\r") {
			b.WriteRune(cfg.Quote)
			b.WriteString(strings.ReplaceAll(c, string(cfg.Quote), string(cfg.Quote)+string(cfg.Quote)))
			b.WriteRune(cfg.Quote)
		} else {
			b.WriteString(c)
		}
	}
	b.WriteByte('\n')
}
