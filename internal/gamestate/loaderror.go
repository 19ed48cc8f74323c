package gamestate

// Load error codes. Zero means no error; the negative hard code asks
// the attached reporter for a message box; any other nonzero value
// carries a missing-object list.
const (
	LoadErrorNone    int8 = 0
	LoadErrorObjects int8 = 1
	LoadErrorMessage int8 = -2
)

// LoadError is the transient error raised by loading performed inside
// a tick. It is surfaced to the reporter at most once and then cleared.
type LoadError struct {
	Code    int8
	Message string
	Objects []string
}

// RaiseLoadError stages a load error for surfacing at the end of the
// current tick. A later raise before surfacing overwrites the earlier
// one.
func (s *State) RaiseLoadError(err LoadError) {
	s.loadErr = err
}

// TakeLoadError returns the staged load error and clears it. The
// second result reports whether one was staged.
func (s *State) TakeLoadError() (LoadError, bool) {
	if s.loadErr.Code == LoadErrorNone {
		return LoadError{}, false
	}
	err := s.loadErr
	s.loadErr = LoadError{}
	return err, true
}
