package crosswalk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ReadCSV decodes a snapshot in the register layout. It returns the rows in
// file order and the layout, whose Extra columns were ignored.
func ReadCSV(r io.Reader) ([]Record, Layout, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, Layout{}, ErrEmptyTable
	}
	if err != nil {
		return nil, Layout{}, fmt.Errorf("%w: header: %v", ErrMalformedRow, err)
	}
	layout, err := NewLayout(header)
	if err != nil {
		return nil, Layout{}, err
	}

	var records []Record
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, Layout{}, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}
		rec, err := layout.Decode(row, line)
		if err != nil {
			return nil, Layout{}, err
		}
		records = append(records, rec)
	}
	return records, layout, nil
}

// WriteCSV encodes t with Header as the first row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for r := range t.All() {
		if err := cw.Write(Encode(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
