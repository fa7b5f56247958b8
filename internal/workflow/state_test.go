package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/narro/internal/models"
)

func TestApply_AppendsWithoutMutatingEarlierState(t *testing.T) {
	first := State{}.Apply(Delta{Reflection: &models.Reflection{Attempt: 1, Critique: "c1", Score: 2}})
	second := first.Apply(Delta{Reflection: &models.Reflection{Attempt: 2, Critique: "c2", Score: 6}})
	third := first.Apply(Delta{Reflection: &models.Reflection{Attempt: 2, Critique: "other", Score: 1}})

	assert.Len(t, first.History, 1)
	assert.Equal(t, 2, first.CurrentScore)

	assert.Len(t, second.History, 2)
	assert.Equal(t, "c2", second.LatestCritique())
	assert.Equal(t, 6, second.CurrentScore)

	assert.Equal(t, "other", third.LatestCritique())
	assert.Equal(t, "c2", second.History[1].Critique)
}

func TestApply_AnalysisReplacedWholesale(t *testing.T) {
	draft1 := "first"
	draft2 := "second"

	s := State{}.Apply(Delta{Analysis: &draft1})
	s = s.Apply(Delta{Analysis: &draft2})
	assert.Equal(t, "second", s.Analysis)

	s = s.Apply(Delta{})
	assert.Equal(t, "second", s.Analysis)
}

func TestCorrectiveRounds(t *testing.T) {
	s := State{}
	assert.Equal(t, 0, s.CorrectiveRounds())
	assert.Equal(t, "", s.LatestCritique())

	s = s.Apply(Delta{Reflection: &models.Reflection{}})
	assert.Equal(t, 0, s.CorrectiveRounds())

	s = s.Apply(Delta{Reflection: &models.Reflection{}})
	assert.Equal(t, 1, s.CorrectiveRounds())
}
