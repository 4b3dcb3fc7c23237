package flight

import (
	"encoding/json"
	"fmt"

	"github.com/hugr-lab/airportlog/catalog"
)

// TicketData represents the decoded content of a Flight ticket.
// Tickets are opaque byte slices encoding schema/table names for query
// routing, plus optional scan hints.
type TicketData struct {
	// Schema is the schema name (e.g., "main")
	Schema string `json:"schema"`

	// Table is the table name (e.g., "airports")
	Table string `json:"table"`

	// Columns to fill (optional, nil means all columns)
	Columns []string `json:"columns,omitempty"`

	// Limit caps the number of rows (optional, 0 means no limit)
	Limit int64 `json:"limit,omitempty"`
}

// EncodeTicket creates an opaque ticket from schema and table names.
// The ticket is JSON-encoded for simplicity and transparency.
func EncodeTicket(schema, table string) ([]byte, error) {
	return (&TicketData{Schema: schema, Table: table}).Encode()
}

// Encode serializes the ticket. Schema and table are required.
func (td *TicketData) Encode() ([]byte, error) {
	if td.Schema == "" {
		return nil, fmt.Errorf("schema name cannot be empty")
	}
	if td.Table == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	if td.Limit < 0 {
		return nil, fmt.Errorf("limit must be non-negative, got %d", td.Limit)
	}

	data, err := json.Marshal(td)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket: %w", err)
	}

	return data, nil
}

// DecodeTicket parses an opaque ticket to extract schema and table names
// and scan hints.
// Returns error if ticket is invalid or cannot be decoded.
func DecodeTicket(ticketBytes []byte) (*TicketData, error) {
	if len(ticketBytes) == 0 {
		return nil, fmt.Errorf("ticket cannot be empty")
	}

	var ticket TicketData
	if err := json.Unmarshal(ticketBytes, &ticket); err != nil {
		return nil, fmt.Errorf("failed to decode ticket: %w", err)
	}

	if ticket.Schema == "" {
		return nil, fmt.Errorf("decoded ticket has empty schema name")
	}
	if ticket.Table == "" {
		return nil, fmt.Errorf("decoded ticket has empty table name")
	}
	if ticket.Limit < 0 {
		return nil, fmt.Errorf("limit must be non-negative, got %d", ticket.Limit)
	}

	return &ticket, nil
}

// ToScanOptions converts TicketData to catalog.ScanOptions.
func (td *TicketData) ToScanOptions() *catalog.ScanOptions {
	return &catalog.ScanOptions{
		Columns: td.Columns,
		Limit:   td.Limit,
	}
}
