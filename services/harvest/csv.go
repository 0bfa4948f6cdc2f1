package harvest

import (
	"encoding/csv"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

var csvHeader = []string{
	"street", "number", "name", "document", "city", "neighborhood", "uf",
	"phone_number", "priority", "score", "plus", "not_disturb",
}

// RowSink receives output rows one at a time as the scrape progresses.
type RowSink interface {
	Append(row OutputRow) error
	Close() error
}

// CsvSink appends rows to a CSV file, flushing after every row so
// partial progress survives an interruption.
type CsvSink struct {
	file   *os.File
	writer *csv.Writer
}

func NewCsvSink(path string) (*CsvSink, error) {
	_, err := os.Stat(path)
	if err == nil {
		backup := strings.TrimSuffix(path, ".csv") + "_backup.csv"
		err = os.Rename(path, backup)
		if err != nil {
			return nil, err
		}
		slog.Info("backed up previous output", "backup", backup)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	writer := csv.NewWriter(file)

	err = writer.Write(csvHeader)
	writer.Flush()
	if err == nil {
		err = writer.Error()
	}
	if err != nil {
		file.Close()
		return nil, err
	}

	return &CsvSink{file: file, writer: writer}, nil
}

func (s *CsvSink) Append(row OutputRow) error {
	err := s.writer.Write([]string{
		row.Street,
		row.Number,
		row.Name,
		row.Document,
		row.City,
		row.Neighborhood,
		row.Uf,
		row.PhoneNumber,
		strconv.FormatInt(row.Priority, 10),
		strconv.FormatFloat(row.Score, 'f', -1, 64),
		strconv.FormatBool(row.Plus),
		strconv.FormatInt(row.NotDisturb, 10),
	})
	s.writer.Flush()
	if err == nil {
		err = s.writer.Error()
	}
	return err
}

func (s *CsvSink) Close() error {
	s.writer.Flush()
	return s.file.Close()
}
