package driver

import (
	"encoding/json"
	"fmt"

	"spring/internal/diag"
	"spring/internal/observ"
	"spring/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	Note    string               `json:"note,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic records timer as an informational diagnostic
// whose note holds the JSON report. It bypasses the bag limit.
func appendTimingDiagnostic(bag *diag.Bag, kind, path string, timer *observ.Timer, note string) {
	if bag == nil || timer == nil {
		return
	}
	report := timer.Report()
	payload := timingPayload{Kind: kind, Path: path, Note: note, TotalMS: report.TotalMS, Phases: report.Phases}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", kind, payload.TotalMS)
	entry := diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, msg).WithNote(source.Span{}, string(data))

	bag.Append(entry)
}
