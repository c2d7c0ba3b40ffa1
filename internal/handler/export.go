package handler

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/domain"
)

// formatCSV selects the CSV rendering of an event history.
const formatCSV = "csv"

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"reservation_id", "version", "event_type", "occurred_at", "recorded_at", "data",
}

// exportFormat resolves the optional ?format= value. Only "json" (the
// default) and "csv" are accepted.
func exportFormat(format *string) (string, bool) {
	if format == nil || *format == "json" {
		return "json", true
	}
	if *format == formatCSV {
		return formatCSV, true
	}
	return "", false
}

// eventsToCSV encodes a reservation's history as CSV, one event per line.
// The data column holds the event payload as compact JSON.
func eventsToCSV(history []domain.RecordedEvent) *bytes.Buffer {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	_ = cw.Write(csvHeaders)
	for _, e := range history {
		_ = cw.Write(eventToCSVRecord(e))
	}
	cw.Flush()
	return &buf
}

func eventToCSVRecord(e domain.RecordedEvent) []string {
	data, err := json.Marshal(e.Event)
	if err != nil {
		data = []byte("{}")
	}
	return []string{
		e.ReservationID.String(),
		strconv.Itoa(e.Version),
		e.Event.EventType(),
		e.Event.OccurredAt().UTC().Format(time.RFC3339),
		e.RecordedAt.UTC().Format(time.RFC3339),
		string(data),
	}
}
