package utils

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVWriter streams rows to w through a buffered csv.Writer.
type CSVWriter struct {
	buf     *bufio.Writer
	csv     *csv.Writer
	columns int
	rows    int
}

func NewCSVWriter(w io.Writer, headers []string) (*CSVWriter, error) {
	buf := bufio.NewWriterSize(w, 64*1024)
	writer := &CSVWriter{
		buf:     buf,
		csv:     csv.NewWriter(buf),
		columns: len(headers),
	}

	if err := writer.csv.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	return writer, nil
}

func (w *CSVWriter) Write(row []string) error {
	if len(row) != w.columns {
		return fmt.Errorf("row has %d columns, want %d", len(row), w.columns)
	}

	escaped := make([]string, len(row))
	for i, cell := range row {
		escaped[i] = EscapeCSVCell(cell)
	}

	if err := w.csv.Write(escaped); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	w.rows++
	return nil
}

func (w *CSVWriter) Rows() int {
	return w.rows
}

func (w *CSVWriter) Flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	return w.buf.Flush()
}

// EscapeCSVCell stops spreadsheet software from evaluating patient-entered
// text as a formula.
func EscapeCSVCell(cell string) string {
	if cell == "" {
		return cell
	}
	switch cell[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + cell
	}
	return strings.TrimRight(cell, "\r\n")
}
