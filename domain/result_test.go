package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummary_Counts(t *testing.T) {
	s := &Summary{}
	s.Add(Completed("a"))
	s.Add(Skip("b", "missing"))
	s.Add(Fail("c", errors.New("boom")))
	s.Add(Completed("d"))

	assert.Equal(t, 4, s.Total())
	assert.Equal(t, 2, s.Count(Done))
	assert.Equal(t, 1, s.Count(Skipped))
	assert.Equal(t, 1, s.Count(Failed))
	assert.Equal(t, "2 done, 1 skipped, 1 failed", s.String())
}

func TestSummary_ExitCode_FailedUnitIsNonzero(t *testing.T) {
	s := &Summary{}
	s.Add(Completed("a"))
	s.Add(Fail("b", errors.New("boom")))
	assert.Equal(t, 1, s.ExitCode())
}

func TestSummary_ExitCode_SkipsStayZero(t *testing.T) {
	s := &Summary{}
	s.Add(Skip("a", "declined"))
	s.Add(Skip("b", "dry run"))
	assert.Equal(t, 0, s.ExitCode())

	empty := &Summary{}
	assert.Equal(t, 0, empty.ExitCode())
}
