package domain

import "fmt"

// Outcome classifies how one unit of work (a service, an image, an archive)
// ended up.
type Outcome int

const (
	// Done means the unit completed successfully.
	Done Outcome = iota
	// Skipped means the unit was deliberately left alone (missing input,
	// declined prompt, filtered out). Skips never fail a batch.
	Skipped
	// Failed means the unit was attempted and did not complete.
	Failed
)

// Result is the typed outcome of one unit of work in a batch.
type Result struct {
	Unit    string
	Outcome Outcome
	Reason  string
	Err     error
}

func Completed(unit string) Result {
	return Result{Unit: unit, Outcome: Done}
}

func Skip(unit string, reason string) Result {
	return Result{Unit: unit, Outcome: Skipped, Reason: reason}
}

func Fail(unit string, err error) Result {
	return Result{Unit: unit, Outcome: Failed, Err: err}
}

// Summary aggregates the results of a batch.
type Summary struct {
	Results []Result
}

func (s *Summary) Add(r Result) {
	s.Results = append(s.Results, r)
}

func (s *Summary) Count(o Outcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

func (s *Summary) Total() int {
	return len(s.Results)
}

// String renders a one-line batch summary, e.g. "3 done, 1 skipped, 1 failed".
func (s *Summary) String() string {
	return fmt.Sprintf("%d done, %d skipped, %d failed",
		s.Count(Done), s.Count(Skipped), s.Count(Failed))
}

// ExitCode implements the batch exit policy: a failed unit makes the whole
// run exit nonzero, skipped units do not.
func (s *Summary) ExitCode() int {
	if s.Count(Failed) > 0 {
		return 1
	}
	return 0
}
