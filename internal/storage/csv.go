package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/dcmotor/internal/motor"
)

var traceHeader = []string{"time", "voltage", "current", "omega"}

// WriteTraceCSV writes one row per sample with full float precision.
func WriteTraceCSV(w io.Writer, tr *motor.Trace) error {
	n := tr.Len()
	if len(tr.Voltage) != n || len(tr.Current) != n || len(tr.Omega) != n {
		return fmt.Errorf("storage: trace series lengths differ: time %d, voltage %d, current %d, omega %d",
			n, len(tr.Voltage), len(tr.Current), len(tr.Omega))
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(traceHeader); err != nil {
		return err
	}

	for i := 0; i < tr.Len(); i++ {
		row := []string{
			strconv.FormatFloat(tr.Times[i], 'g', -1, 64),
			strconv.FormatFloat(tr.Voltage[i], 'g', -1, 64),
			strconv.FormatFloat(tr.Current[i], 'g', -1, 64),
			strconv.FormatFloat(tr.Omega[i], 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadTraceCSV parses the format written by WriteTraceCSV.
func ReadTraceCSV(r io.Reader) (*motor.Trace, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(traceHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("storage: trace has no header")
	}

	n := len(records) - 1
	tr := &motor.Trace{
		Times:   make([]float64, n),
		Voltage: make([]float64, n),
		Current: make([]float64, n),
		Omega:   make([]float64, n),
	}
	columns := [][]float64{tr.Times, tr.Voltage, tr.Current, tr.Omega}

	for i, record := range records[1:] {
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: row %d column %s: %w", i+1, traceHeader[j], err)
			}
			columns[j][i] = v
		}
	}

	return tr, nil
}
