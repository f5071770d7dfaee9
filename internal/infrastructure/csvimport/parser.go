// Package csvimport reads counterparty lists uploaded as delimited text
// ("code[,name]" per line) or as an .xlsx workbook.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// maxCodeLength matches the counterparties.code column
const maxCodeLength = 50

// Entry is one counterparty read from an upload
type Entry struct {
	Line int
	Code string
	Name string
}

// Result holds the accepted entries in file order and the skipped lines
type Result struct {
	Entries []Entry
	Skipped []RowError
}

// ParserOption is a functional option for the text parser
type ParserOption func(*csv.Reader)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(r *csv.Reader) {
		r.Comma = d
	}
}

// Parse picks the reader by file name: .xlsx goes to ParseWorkbook,
// everything else is read as delimited text.
func Parse(filename string, r io.Reader) (*Result, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return ParseWorkbook(r)
	}
	return ParseText(r)
}

// ParseText reads "code[,name]" lines. Each line is parsed on its own, so an
// unbalanced quote never swallows the following lines. Blank lines are
// skipped and a UTF-8 BOM is discarded. Duplicates are kept; callers decide
// what a duplicate means.
func ParseText(r io.Reader, opts ...ParserOption) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	result := &Result{}
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if line == 1 {
			text = strings.TrimPrefix(text, utf8BOM)
		}
		if !utf8.ValidString(text) {
			return nil, fmt.Errorf("line %d: %w", line, ErrInvalidEncoding)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		record, err := parseLine(text, opts)
		if err != nil {
			result.Skipped = append(result.Skipped, RowError{
				Row: line, Code: ErrCodeImportMalformed, Message: err.Error(), Value: text,
			})
			continue
		}
		result.add(line, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	return result, nil
}

const (
	utf8BOM     = "\uFEFF"
	maxLineSize = 1024 * 1024
)

// parseLine splits a single line with the csv rules (quoted fields may
// contain the delimiter)
func parseLine(text string, opts []ParserOption) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	for _, opt := range opts {
		opt(reader)
	}

	record, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return record, err
}

func (res *Result) add(line int, fields []string) {
	var code, name string
	if len(fields) > 0 {
		code = strings.TrimSpace(fields[0])
	}
	if len(fields) > 1 {
		name = strings.TrimSpace(fields[1])
	}

	switch {
	case code == "" && name == "":
		return
	case code == "":
		res.Skipped = append(res.Skipped, RowError{
			Row: line, Code: ErrCodeImportMissingCode, Message: "missing counterparty code", Value: name,
		})
	case len(code) > maxCodeLength:
		res.Skipped = append(res.Skipped, RowError{
			Row: line, Code: ErrCodeImportCodeTooLong, Message: "counterparty code is too long", Value: code,
		})
	default:
		res.Entries = append(res.Entries, Entry{Line: line, Code: code, Name: name})
	}
}
