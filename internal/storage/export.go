package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/dbwsim/internal/dynamo"
	"github.com/san-kum/dbwsim/internal/physics"
)

type ExportData struct {
	Scenario      string             `json:"scenario"`
	Integrator    string             `json:"integrator"`
	Dt            float64            `json:"dt"`
	Duration      float64            `json:"duration"`
	Steps         int                `json:"steps"`
	StateLabels   []string           `json:"state_labels"`
	ControlLabels []string           `json:"control_labels"`
	Times         []float64          `json:"times"`
	States        [][]float64        `json:"states"`
	Controls      [][]float64        `json:"controls"`
	Metrics       map[string]float64 `json:"metrics"`
}

func NewExportData(info RunInfo, result *dynamo.Result) ExportData {
	data := ExportData{
		Scenario:      info.Scenario,
		Integrator:    info.Integrator,
		Dt:            info.Dt,
		Duration:      info.Duration,
		Steps:         len(result.Times),
		StateLabels:   physics.StateLabels,
		ControlLabels: physics.ControlLabels,
		Times:         result.Times,
		States:        make([][]float64, len(result.States)),
		Controls:      make([][]float64, len(result.Controls)),
		Metrics:       result.Metrics,
	}
	for i, s := range result.States {
		data.States[i] = s
	}
	for i, c := range result.Controls {
		data.Controls[i] = c
	}
	return data
}

// WriteJSON encodes the run to w.
func WriteJSON(w io.Writer, info RunInfo, result *dynamo.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(info, result))
}

// ExportJSON writes the run to path, or to stdout when path is empty or "-".
func ExportJSON(path string, info RunInfo, result *dynamo.Result) error {
	if path == "" || path == "-" {
		return WriteJSON(os.Stdout, info, result)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, info, result)
}
