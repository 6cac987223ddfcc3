package core

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ByDateDesc is the default record ordering: newest first.
var ByDateDesc = DBOrdering{Field: "date"}
