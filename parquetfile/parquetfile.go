package parquetfile

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"hdfsbridge/protocols"
)

// Parallelism is the number of goroutines parquet-go uses per file.
const Parallelism = 4

// Column is a leaf column of a Parquet schema.
type Column struct {
	Name string
	Type string
}

// Summary describes a Parquet file without reading its rows.
type Summary struct {
	Rows    int64
	Columns []Column
}

// Describe reads the footer of the Parquet file at path.
func Describe(fsys protocols.FileSystem, path string) (*Summary, error) {
	pf, err := Open(fsys, path)
	if err != nil {
		return nil, err
	}
	defer pf.Close()

	pr, err := reader.NewParquetReader(pf, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("read parquet footer %s: %w", path, err)
	}
	defer pr.ReadStop()

	summary := &Summary{Rows: pr.GetNumRows()}
	for _, el := range pr.Footer.GetSchema() {
		if el.GetNumChildren() > 0 || el.Type == nil {
			continue
		}
		summary.Columns = append(summary.Columns, Column{
			Name: el.GetName(),
			Type: el.GetType().String(),
		})
	}
	return summary, nil
}

// Read loads every row of the file at path into a slice of T. T must carry
// parquet struct tags.
func Read[T any](fsys protocols.FileSystem, path string) ([]T, error) {
	pf, err := Open(fsys, path)
	if err != nil {
		return nil, err
	}
	defer pf.Close()

	pr, err := reader.NewParquetReader(pf, new(T), Parallelism)
	if err != nil {
		return nil, fmt.Errorf("open parquet reader %s: %w", path, err)
	}
	defer pr.ReadStop()

	rows := make([]T, pr.GetNumRows())
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("read parquet rows %s: %w", path, err)
	}
	return rows, nil
}

// Write replaces the file at path with rows, Snappy compressed.
func Write[T any](fsys protocols.FileSystem, path string, rows []T) error {
	return protocols.WithFile(fsys, path, "wb", func(f *protocols.File) error {
		pw, err := writer.NewParquetWriter(writerfile.NewWriterFile(f), new(T), Parallelism)
		if err != nil {
			return fmt.Errorf("create parquet writer %s: %w", path, err)
		}
		pw.CompressionType = parquet.CompressionCodec_SNAPPY

		for _, row := range rows {
			if err := pw.Write(row); err != nil {
				_ = pw.WriteStop()
				return fmt.Errorf("write parquet row %s: %w", path, err)
			}
		}
		return pw.WriteStop()
	})
}
