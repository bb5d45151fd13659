package types

type StatusType int

const (
	UnchangedStatus StatusType = 0
	ModifiedStatus  StatusType = 1
	DeletedStatus   StatusType = 2
)

func (s StatusType) String() string {
	switch s {
	case ModifiedStatus:
		return "modified"
	case DeletedStatus:
		return "deleted"
	default:
		return "unchanged"
	}
}
