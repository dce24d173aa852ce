package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/sqlscan/pkg/core/record"
)

// Excel ограничивает имя листа 31 символом
const maxSheetName = 31

// XLSXConfig - конфигурация XLSX sink
type XLSXConfig struct {
	Path  string `yaml:"path"`
	Sheet string `yaml:"sheet"` // по умолчанию имя таблицы
}

// XLSXSink пишет все батчи скана на один лист через StreamWriter.
// Колонки берутся из первого батча; файл сохраняется в Close.
type XLSXSink struct {
	mu      sync.Mutex
	path    string
	sheet   string
	file    *excelize.File
	stream  *excelize.StreamWriter
	columns []string
	row     int
}

// NewXLSXSink создает пустую книгу
func NewXLSXSink(cfg XLSXConfig) (*XLSXSink, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("xlsx: path is required")
	}
	return &XLSXSink{path: cfg.Path, sheet: cfg.Sheet, file: excelize.NewFile()}, nil
}

func (s *XLSXSink) Name() string { return TypeXLSX }

func (s *XLSXSink) Write(_ context.Context, b Batch) error {
	if len(b.Rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		if err := s.start(b.Table, record.Columns(b.Rows[0])); err != nil {
			return err
		}
	}

	for _, r := range b.Rows {
		s.row++
		cell, err := excelize.CoordinatesToCellName(1, s.row)
		if err != nil {
			return err
		}
		if err := s.stream.SetRow(cell, cellValues(r, s.columns)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", s.row, err)
		}
	}
	return nil
}

// start переименовывает Sheet1 и пишет строку заголовков
func (s *XLSXSink) start(table string, columns []string) error {
	if s.sheet == "" {
		s.sheet = table
	}
	if len(s.sheet) > maxSheetName {
		s.sheet = s.sheet[:maxSheetName]
	}
	if s.sheet == "" {
		s.sheet = "Sheet1"
	}
	if s.sheet != "Sheet1" {
		if err := s.file.SetSheetName("Sheet1", s.sheet); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
	}

	headerStyle, err := s.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	sw, err := s.file.NewStreamWriter(s.sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: c}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	s.stream = sw
	s.columns = columns
	s.row = 1
	return nil
}

func cellValues(r record.Record, columns []string) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		switch v := r[c].(type) {
		case nil:
			out[i] = ""
		case []byte:
			out[i] = fmt.Sprintf("%x", v)
		default:
			out[i] = v
		}
	}
	return out
}

// Rows - количество записанных строк данных
func (s *XLSXSink) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.row == 0 {
		return 0
	}
	return s.row - 1
}

// Close сбрасывает поток и сохраняет файл. Пустой скан дает книгу без данных.
func (s *XLSXSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	defer func() {
		s.file.Close()
		s.file = nil
	}()

	if s.stream != nil {
		if err := s.stream.Flush(); err != nil {
			return fmt.Errorf("failed to flush sheet: %w", err)
		}
	}
	if err := s.file.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.path, err)
	}
	return nil
}
