package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldEnforceExpansion_ExplicitActions(t *testing.T) {
	var p LengthPolicy

	assert.False(t, p.ShouldEnforceExpansion(ActionShorten, "alarga mucho el capitulo"))
	assert.True(t, p.ShouldEnforceExpansion(ActionExpand, ""))
	assert.True(t, p.ShouldEnforceExpansion(ActionLengthen, ""))
	assert.True(t, p.ShouldEnforceExpansion(ActionContinue, ""))
	assert.True(t, p.ShouldEnforceExpansion(ActionDevelop, ""))
}

func TestShouldEnforceExpansion_FreeTextIntent(t *testing.T) {
	var p LengthPolicy

	assert.True(t, p.ShouldEnforceExpansion(ActionRewrite, "alarga la escena del puerto"))
	assert.True(t, p.ShouldEnforceExpansion(ActionRewrite, "expand the storm scene"))
	assert.True(t, p.ShouldEnforceExpansion(ActionRewrite, "desarrolla más el diálogo"))
	assert.False(t, p.ShouldEnforceExpansion(ActionRewrite, "corrige las tildes"))
	assert.False(t, p.ShouldEnforceExpansion(ActionRewrite, "resume el capitulo en dos parrafos"))
}

func TestShouldEnforceExpansion_ShortenIntentWinsWhenBothMatch(t *testing.T) {
	var p LengthPolicy

	assert.False(t, p.ShouldEnforceExpansion(ActionRewrite, "expande la trama pero resume los flashbacks"))
	assert.False(t, p.ShouldEnforceExpansion(ActionRewrite, "expand but trim the dialogue"))
}

func TestResolveMinimumWords_FloorsAtOriginalLength(t *testing.T) {
	var p LengthPolicy
	original := "uno dos tres cuatro cinco seis siete ocho nueve diez"

	// No numeric target: floor is the original length.
	assert.Equal(t, 10, p.ResolveMinimumWords("alarga la escena", original))

	// Target below the original never shrinks the floor. 30 is within the
	// accepted range but smaller than a 40-word original would be; here the
	// original has 10 words so the target wins.
	assert.Equal(t, 50, p.ResolveMinimumWords("expand to 50 words", original))
	assert.Equal(t, 120, p.ResolveMinimumWords("amplia hasta 120 palabras", original))
}

func TestResolveMinimumWords_RejectsOutOfRangeTargets(t *testing.T) {
	var p LengthPolicy

	assert.Equal(t, 3, p.ResolveMinimumWords("escribe 5 palabras", "Ana camina sola."))
	assert.Equal(t, 3, p.ResolveMinimumWords("escribe 999999 palabras", "Ana camina sola."))
	assert.Equal(t, 50000, p.ResolveMinimumWords("escribe 50.000 palabras", "Ana camina sola."))
}

func TestResolveMinimumWords_SpecScenario(t *testing.T) {
	var p LengthPolicy

	// Original "Ana camina sola." (3 words), "expand to 50 words" -> 50.
	assert.Equal(t, 50, p.ResolveMinimumWords("expand to 50 words", "Ana camina sola."))
}
