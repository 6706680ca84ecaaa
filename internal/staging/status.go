package staging

import "fmt"

// FileStatus classifies a working-tree path relative to the last commit.
type FileStatus int

const (
	Untracked FileStatus = iota
	New
	Unchanged
	Modified
	Deleted

	numStatuses
)

var statusNames = [numStatuses]string{
	Untracked: "UNTRACKED",
	New:       "NEW",
	Unchanged: "UNCHANGED",
	Modified:  "MODIFIED",
	Deleted:   "DELETED",
}

// Statuses lists every FileStatus in declaration order.
func Statuses() []FileStatus {
	out := make([]FileStatus, 0, numStatuses)
	for s := Untracked; s < numStatuses; s++ {
		out = append(out, s)
	}
	return out
}

func (s FileStatus) String() string {
	if s < 0 || s >= numStatuses {
		return fmt.Sprintf("FileStatus(%d)", int(s))
	}
	return statusNames[s]
}

// Valid reports whether s is one of the declared statuses.
func (s FileStatus) Valid() bool {
	return s >= 0 && s < numStatuses
}

// Pending reports whether s is a change not yet committed.
func (s FileStatus) Pending() bool {
	return s == New || s == Modified || s == Deleted
}

// ParseStatus converts a status label such as "MODIFIED" to a FileStatus.
func ParseStatus(name string) (FileStatus, error) {
	for s, n := range statusNames {
		if n == name {
			return FileStatus(s), nil
		}
	}
	return 0, fmt.Errorf("unknown file status %q", name)
}

func (s FileStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid file status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *FileStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
