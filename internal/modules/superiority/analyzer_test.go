package superiority

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/vitals/internal/domain"
)

func TestAnalyze_Empty(t *testing.T) {
	assert.Nil(t, Analyze(nil, domain.PostureNeutral))
}

func TestAnalyze_Single(t *testing.T) {
	a := Analyze([]domain.Decision{
		domain.NewPositionDecision("NVDA", "TECH", domain.ActionMaintain, "", 88),
	}, domain.PostureNeutral)

	require.NotNil(t, a)
	assert.Equal(t, "NVDA", a.Primary.Target)
	assert.Empty(t, a.Alternatives)
	assert.Equal(t, 1.0, a.Confidence)
	assert.Equal(t, "MAINTAIN NVDA ranks first under NEUTRAL posture (score 88.0).", a.Rationale)
}

func TestAnalyze_Ranking(t *testing.T) {
	decisions := []domain.Decision{
		domain.NewPositionDecision("HOLDER", "TECH", domain.ActionMaintain, "", 90),
		domain.NewCandidateDecision("BIO", "BIOTECH", domain.ActionAllocate, "", 70),
		domain.NewPositionDecision("DEAD", "UTILITIES", domain.ActionFreeCapital, "", 20),
		domain.NewCandidateDecision("TECH_B", "TECH", domain.ActionAllocate, "", 80),
		domain.NewCandidateDecision("MEH", "ENERGY", domain.ActionIgnore, "", 10),
	}

	a := Analyze(decisions, domain.PostureAggressive)
	require.NotNil(t, a)

	assert.Equal(t, "DEAD", a.Primary.Target)
	require.Len(t, a.Alternatives, 3)
	assert.Equal(t, "TECH_B", a.Alternatives[0].Target)
	assert.Equal(t, "BIO", a.Alternatives[1].Target)
	assert.Equal(t, "HOLDER", a.Alternatives[2].Target)

	// 0.5 + 0.5*(100 - mean(70,70,30))/100 = 0.5 + 0.5*0.4333
	assert.Equal(t, 0.72, a.Confidence)
	assert.Equal(t, domain.DecisionPosition, a.Primary.Type())
}

func TestAnalyze_TieBreaksOnTarget(t *testing.T) {
	a := Analyze([]domain.Decision{
		domain.NewCandidateDecision("ZED", "X", domain.ActionAllocate, "", 50),
		domain.NewCandidateDecision("ABE", "X", domain.ActionAllocate, "", 50),
	}, domain.PostureNeutral)

	assert.Equal(t, "ABE", a.Primary.Target)
	assert.Equal(t, 0.5, a.Confidence)
}

func TestAnalyze_Deterministic(t *testing.T) {
	decisions := []domain.Decision{
		domain.NewCandidateDecision("A", "X", domain.ActionAllocate, "", 60),
		domain.NewPositionDecision("B", "Y", domain.ActionHold, "", 55),
		domain.NewPositionDecision("C", "Y", domain.ActionReduce, "", 20),
	}
	assert.Equal(t, Analyze(decisions, domain.PostureNeutral), Analyze(decisions, domain.PostureNeutral))
}

func TestWeight(t *testing.T) {
	assert.Greater(t, Weight(domain.ActionFreeCapital), Weight(domain.ActionAllocateHigh))
	assert.Greater(t, Weight(domain.ActionAllocate), Weight(domain.ActionMaintain))
	assert.Equal(t, defaultActionWeight, Weight(domain.Action("SOMETHING_NEW")))
}

func TestSimulateCounterfactual(t *testing.T) {
	a := Analyze([]domain.Decision{
		domain.NewCandidateDecision("A", "X", domain.ActionAllocate, "", 80),
		domain.NewCandidateDecision("B", "X", domain.ActionAllocate, "", 79),
		domain.NewPositionDecision("C", "Y", domain.ActionMaintain, "", 99),
	}, domain.PostureNeutral)
	require.NotNil(t, a)

	t.Run("nil inputs", func(t *testing.T) {
		assert.Nil(t, SimulateCounterfactual(nil, rand.New(rand.NewSource(1)), 10))
		assert.Nil(t, SimulateCounterfactual(a, nil, 10))
	})

	t.Run("same seed same result", func(t *testing.T) {
		first := SimulateCounterfactual(a, rand.New(rand.NewSource(42)), 200)
		second := SimulateCounterfactual(a, rand.New(rand.NewSource(42)), 200)
		require.NotNil(t, first)
		assert.Equal(t, first, second)
		assert.Equal(t, 200, first.Trials)
		assert.Equal(t, first.Trials, first.PrimaryRetained+first.ChallengerWins)
		// C carries a lower action weight and can never win on noise alone
		assert.NotEqual(t, "C", first.TopChallenger)
		assert.True(t, first.Stability > 0 && first.Stability < 1)
	})

	t.Run("lone decision is fully stable", func(t *testing.T) {
		lone := Analyze([]domain.Decision{domain.NewPositionDecision("ONLY", "X", domain.ActionHold, "", 50)}, domain.PostureNeutral)
		cf := SimulateCounterfactual(lone, rand.New(rand.NewSource(7)), 0)
		assert.Equal(t, defaultTrials, cf.Trials)
		assert.Equal(t, 1.0, cf.Stability)
		assert.Empty(t, cf.TopChallenger)
	})
}
