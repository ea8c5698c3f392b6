package domain

// RowKind names the shape a row was resolved to.
type RowKind string

const (
	RowSequence RowKind = "sequence"
	RowMapping  RowKind = "mapping"
	RowScalar   RowKind = "scalar"
)

// Row is one table row. The concrete type is one of SequenceRow, MappingRow
// or ScalarRow.
type Row interface {
	Kind() RowKind
	Cells() []string
	row()
}

// SequenceRow holds the string form of each element of an array row.
type SequenceRow []string

func (SequenceRow) Kind() RowKind     { return RowSequence }
func (r SequenceRow) Cells() []string { return r }
func (SequenceRow) row()              {}

// MappingRow holds an object row's keys and values in iteration order. Keys
// are kept but never rendered as headers.
type MappingRow struct {
	Keys   []string
	Values []string
}

func (MappingRow) Kind() RowKind     { return RowMapping }
func (r MappingRow) Cells() []string { return r.Values }
func (MappingRow) row()              {}

// ScalarRow is any other row value, rendered as a single cell.
type ScalarRow string

func (ScalarRow) Kind() RowKind     { return RowScalar }
func (r ScalarRow) Cells() []string { return []string{string(r)} }
func (ScalarRow) row()              {}

// ResolveRow picks the row shape for a decoded value once.
func ResolveRow(v any) Row {
	switch t := v.(type) {
	case []any:
		cells := make(SequenceRow, len(t))
		for i, cell := range t {
			cells[i] = Stringify(cell)
		}
		return cells
	case Object:
		values := make([]string, len(t))
		for i, f := range t {
			values[i] = Stringify(f.Value)
		}
		return MappingRow{Keys: t.Keys(), Values: values}
	default:
		return ScalarRow(Stringify(v))
	}
}
