package contract

import "fmt"

// RepositoryOpenError reports a repository that cannot be opened or read.
type RepositoryOpenError struct {
	Path string
	Err  error
}

func (e *RepositoryOpenError) Error() string {
	return fmt.Sprintf("cannot open repository %q: %v. Verify the path points inside a Git working tree", e.Path, e.Err)
}

func (e *RepositoryOpenError) Unwrap() error { return e.Err }

// InvalidDateError reports a --since or --until value that is not a YYYY-MM-DD date.
type InvalidDateError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid %s date %q: %v. Expected format YYYY-MM-DD", e.Field, e.Value, e.Err)
}

func (e *InvalidDateError) Unwrap() error { return e.Err }

// CommitReadError reports a commit, tree or diff that could not be read mid-walk.
type CommitReadError struct {
	Commit string
	Err    error
}

func (e *CommitReadError) Error() string {
	if e.Commit == "" {
		return fmt.Sprintf("failed to read history: %v", e.Err)
	}
	return fmt.Sprintf("failed to read commit %s: %v", e.Commit, e.Err)
}

func (e *CommitReadError) Unwrap() error { return e.Err }
