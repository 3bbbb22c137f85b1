package table

// Column names used to synthesize a driver's display name.
const (
	GivenNameColumn   = "forename"
	FamilyNameColumn  = "surname"
	DisplayNameColumn = "full_name"
)

// DeriveDisplayName adds the full_name column when t has both forename and
// surname columns. full_name is forename + " " + surname, or nil when either
// part is null. Tables without both columns are returned unchanged.
func DeriveDisplayName(t *Table) *Table {
	gi, ok := t.ColumnIndex(GivenNameColumn)
	if !ok {
		return t
	}
	fi, ok := t.ColumnIndex(FamilyNameColumn)
	if !ok {
		return t
	}

	col := Column{Name: DisplayNameColumn, Type: TypeString}
	return t.WithColumn(col, func(r Row) any {
		values := r.Values()
		given, gok := values[gi].(string)
		family, fok := values[fi].(string)
		if !gok || !fok {
			return nil
		}
		return given + " " + family
	})
}
