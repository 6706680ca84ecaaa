package repo

import "fmt"

// Kind classifies a failed repository operation.
type Kind int

const (
	RepositoryNotInitialized Kind = iota + 1
	AlreadyInitialized
	AddError
	CommitError
	BranchError
	CheckoutError
	CherryPickError
	CommitNotFound
)

var kindNames = map[Kind]string{
	RepositoryNotInitialized: "repository not initialized",
	AlreadyInitialized:       "repository already initialized",
	AddError:                 "add failed",
	CommitError:              "commit failed",
	BranchError:              "branch failed",
	CheckoutError:            "checkout failed",
	CherryPickError:          "cherry-pick failed",
	CommitNotFound:           "commit not found",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned for every precondition violation. Operations that fail
// with an *Error have not changed any persisted state.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotInitialized     = &Error{Kind: RepositoryNotInitialized}
	ErrAlreadyInitialized = &Error{Kind: AlreadyInitialized}
	ErrAdd                = &Error{Kind: AddError}
	ErrCommit             = &Error{Kind: CommitError}
	ErrBranch             = &Error{Kind: BranchError}
	ErrCheckout           = &Error{Kind: CheckoutError}
	ErrCherryPick         = &Error{Kind: CherryPickError}
	ErrCommitNotFound     = &Error{Kind: CommitNotFound}
)

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}
