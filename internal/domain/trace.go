package domain

// Column names the dataset merge endpoint expects, and the legacy names the
// trace search endpoint may return instead.
const (
	ColumnInputs   = "inputs"
	ColumnOutputs  = "outputs"
	ColumnRequest  = "request"
	ColumnResponse = "response"
)

// TraceRecord is one trace row as returned by the trace store. Rows are
// opaque beyond the input/output columns; everything else passes through
// to the dataset untouched.
type TraceRecord map[string]any

// NormalizeColumns renames request->inputs and response->outputs in place.
// Each rename only happens when the target column is absent and the source
// present, so the operation is idempotent and the two columns are handled
// independently.
func (r TraceRecord) NormalizeColumns() {
	if _, ok := r[ColumnInputs]; !ok {
		if v, ok := r[ColumnRequest]; ok {
			r[ColumnInputs] = v
			delete(r, ColumnRequest)
		}
	}
	if _, ok := r[ColumnOutputs]; !ok {
		if v, ok := r[ColumnResponse]; ok {
			r[ColumnOutputs] = v
			delete(r, ColumnResponse)
		}
	}
}

// NormalizeRecords applies NormalizeColumns to every record.
func NormalizeRecords(records []TraceRecord) {
	for _, r := range records {
		r.NormalizeColumns()
	}
}
