package activity

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	BoardID int64
	Entity  string
	Type    *Type
	Limit   int
	Offset  int
}
