package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/dcmotor/internal/motor"
)

type ExportData struct {
	RunMetadata
	Times   []Float `json:"times"`
	Voltage []Float `json:"voltage"`
	Current []Float `json:"current"`
	Omega   []Float `json:"omega"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, tr *motor.Trace) error {
	data := ExportData{
		RunMetadata: *meta,
		Times:       toFloats(tr.Times),
		Voltage:     toFloats(tr.Voltage),
		Current:     toFloats(tr.Current),
		Omega:       toFloats(tr.Omega),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
