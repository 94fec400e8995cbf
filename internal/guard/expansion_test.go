package guard

import (
	"context"
	"strings"
	"testing"

	"writewme/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "palabra"
	}
	return strings.Join(w, " ")
}

func countingClient(t *testing.T, calls *int, response string) llm.Client {
	t.Helper()
	return llm.Func(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		*calls++
		return response, nil
	})
}

func TestExpansionGuard_NoEnforcementPassesThrough(t *testing.T) {
	calls := 0
	g := NewExpansionGuard(countingClient(t, &calls, "should not be called"), llm.Options{})

	res, err := g.Enforce(context.Background(), "texto corto", "original", "corrige las tildes", ActionRewrite)

	require.NoError(t, err)
	assert.Equal(t, "texto corto", res.Text)
	assert.False(t, res.Corrected)
	assert.Equal(t, 0, calls)
}

func TestExpansionGuard_MeetsFloorWithoutRecovery(t *testing.T) {
	calls := 0
	g := NewExpansionGuard(countingClient(t, &calls, ""), llm.Options{})

	res, err := g.Enforce(context.Background(), words(60), "Ana camina sola.", "expand to 50 words", ActionExpand)

	require.NoError(t, err)
	assert.False(t, res.Corrected)
	assert.Equal(t, 0, calls)
}

func TestExpansionGuard_SingleRecoverySucceeds(t *testing.T) {
	// Spec scenario: original 3 words, target 50, candidate 40 words ->
	// exactly one recovery call; recovery of 55 words is accepted.
	calls := 0
	g := NewExpansionGuard(countingClient(t, &calls, words(55)), llm.Options{})

	res, err := g.Enforce(context.Background(), words(40), "Ana camina sola.", "expand to 50 words", ActionExpand)

	require.NoError(t, err)
	assert.True(t, res.Corrected)
	assert.GreaterOrEqual(t, len(strings.Fields(res.Text)), 50)
	assert.Equal(t, 1, calls)
}

func TestExpansionGuard_RecoveryShortFallsBackToOriginal(t *testing.T) {
	calls := 0
	original := words(60)
	g := NewExpansionGuard(countingClient(t, &calls, words(10)), llm.Options{})

	res, err := g.Enforce(context.Background(), words(20), original, "alarga la escena", ActionExpand)

	require.NoError(t, err)
	assert.True(t, res.Corrected)
	assert.Equal(t, original, res.Text)
	assert.Equal(t, 1, calls)
}

func TestExpansionGuard_NothingMeetsFloorAcceptsBestEffort(t *testing.T) {
	calls := 0
	g := NewExpansionGuard(countingClient(t, &calls, words(10)), llm.Options{})

	candidate := words(20)
	res, err := g.Enforce(context.Background(), candidate, "Ana camina sola.", "amplia hasta 100 palabras", ActionExpand)

	require.NoError(t, err)
	assert.False(t, res.Corrected)
	assert.Equal(t, candidate, res.Text)
	assert.Equal(t, 1, calls)
}

func TestExpansionGuard_StripsChangeSummaryBeforeCounting(t *testing.T) {
	calls := 0
	g := NewExpansionGuard(countingClient(t, &calls, ""), llm.Options{})

	candidate := words(60) + "\n=== CAMBIOS ===\nReescribi el final."
	res, err := g.Enforce(context.Background(), candidate, words(50), "alarga el capitulo", ActionExpand)

	require.NoError(t, err)
	assert.Equal(t, words(60), res.Text)
	assert.Equal(t, "Reescribi el final.", res.SummaryText)
	assert.Equal(t, 0, calls)
}

func TestExpansionGuard_ModelFailurePropagates(t *testing.T) {
	g := NewExpansionGuard(llm.Func(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		return "", llm.ErrModelUnavailable
	}), llm.Options{})

	_, err := g.Enforce(context.Background(), words(10), words(5), "expand to 100 words", ActionExpand)
	assert.ErrorIs(t, err, llm.ErrModelUnavailable)
}
