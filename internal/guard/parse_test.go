package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRound_WellFormed(t *testing.T) {
	raw := "ESTADO: DONE\nRESUMEN: cerro el arco de Ana\nTEXTO: Ana volvio al faro.\nLa niebla se levanto."

	r := ParseRound(raw)

	assert.Equal(t, RoundDone, r.Status)
	assert.Equal(t, "cerro el arco de Ana", r.Summary)
	assert.Equal(t, "Ana volvio al faro.\nLa niebla se levanto.", r.Text)
	assert.False(t, r.Malformed)
}

func TestParseRound_StatusIsCaseInsensitive(t *testing.T) {
	r := ParseRound("estado: continue\nresumen: avanza\ntexto: mas texto")
	assert.Equal(t, RoundContinue, r.Status)
	assert.False(t, r.Malformed)
}

func TestParseRound_MissingMarkersDefaultsToContinueWithWholeText(t *testing.T) {
	raw := "Ana volvio al faro sin mas explicaciones."

	r := ParseRound(raw)

	assert.Equal(t, RoundContinue, r.Status)
	assert.Equal(t, raw, r.Text)
	assert.True(t, r.Malformed)
}

func TestParseRound_UnknownStatusFailsOpenToContinue(t *testing.T) {
	r := ParseRound("ESTADO: QUIZAS\nTEXTO: algo")
	assert.Equal(t, RoundContinue, r.Status)
	assert.True(t, r.Malformed)
	assert.Equal(t, "algo", r.Text)
}

func TestParseRound_MarkerInsideTextBlockIsNotASection(t *testing.T) {
	raw := "ESTADO: CONTINUE\nTEXTO: El cartel decia:\nESTADO: cerrado por obras"

	r := ParseRound(raw)

	assert.Equal(t, RoundContinue, r.Status)
	assert.Equal(t, "El cartel decia:\nESTADO: cerrado por obras", r.Text)
}

func TestParseVerdict_Pass(t *testing.T) {
	v := ParseVerdict("ESTADO: PASS\nRAZON:\nTEXTO:")
	assert.Equal(t, VerdictPass, v.Status)
	assert.False(t, v.Malformed)
	assert.Empty(t, v.Text)
}

func TestParseVerdict_FailCarriesReasonAndCorrection(t *testing.T) {
	raw := "ESTADO: FAIL\nRAZON: Ana no puede estar en dos sitios\nTEXTO: Ana seguia en el faro."

	v := ParseVerdict(raw)

	assert.Equal(t, VerdictFail, v.Status)
	assert.Equal(t, "Ana no puede estar en dos sitios", v.Reason)
	assert.Equal(t, "Ana seguia en el faro.", v.Text)
	assert.False(t, v.Malformed)
}

func TestParseVerdict_MalformedDefaultsToPass(t *testing.T) {
	raw := "Creo que todo esta bien, buen trabajo."

	v := ParseVerdict(raw)

	assert.Equal(t, VerdictPass, v.Status)
	assert.True(t, v.Malformed)
	assert.Equal(t, raw, v.Text)
}

func TestSplitChangeSummary(t *testing.T) {
	body, summary := SplitChangeSummary("Texto del capitulo.\n=== CAMBIOS ===\nAjuste el ritmo.")
	assert.Equal(t, "Texto del capitulo.", body)
	assert.Equal(t, "Ajuste el ritmo.", summary)

	body, summary = SplitChangeSummary("Sin resumen al final.")
	assert.Equal(t, "Sin resumen al final.", body)
	assert.Empty(t, summary)
}
