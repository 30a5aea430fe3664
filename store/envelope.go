package store

// Row is a single result row keyed by column name.
type Row map[string]any

// Meta carries driver-reported execution metadata.
type Meta struct {
	// Changes is the number of rows the statement modified.
	Changes int64 `json:"changes"`
	// InsertedID is the auto-increment id produced by an insert-capable
	// write, nil when the driver reported none.
	InsertedID *int64 `json:"inserted_id,omitempty"`
	// RowsRead is the number of rows materialized by a read.
	RowsRead int64 `json:"rows_read"`
	// RowsWritten mirrors Changes for write statements.
	RowsWritten int64 `json:"rows_written"`
}

// Envelope is the uniform structure returned by any statement execution.
// Rows is populated only for read-oriented calls; SingleRow only by First.
type Envelope struct {
	Success   bool  `json:"success"`
	Rows      []Row `json:"rows,omitempty"`
	SingleRow Row   `json:"single_row,omitempty"`
	Meta      Meta  `json:"meta"`
}

// rawOptions configures BoundStatement.Raw.
type rawOptions struct {
	columnNames bool
}

// RawOption configures BoundStatement.Raw.
type RawOption func(*rawOptions)

// WithColumnNames prefixes the positional rows with a row of column names.
func WithColumnNames() RawOption {
	return func(o *rawOptions) { o.columnNames = true }
}
