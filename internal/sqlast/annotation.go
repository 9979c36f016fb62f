package sqlast

// Anno is a single `-- QueryBy(...)`-family annotation attached to the table
// it immediately follows. Which form it is follows from the CreateTable
// field that holds it; Columns holds the argument list (QueryLike requires
// exactly one). Views carry no annotations.
type Anno struct {
	Columns []string
}
