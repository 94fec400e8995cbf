package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkup_ParagraphsBecomeNewlines(t *testing.T) {
	html := "<p>Ana camina sola.</p><p>El viento <strong>sopla</strong> fuerte.</p>"
	assert.Equal(t, "Ana camina sola.\nEl viento sopla fuerte.", StripMarkup(html))
}

func TestStripMarkup_DecodesEntitiesAndCollapsesSpaces(t *testing.T) {
	html := "<p>Uno&nbsp;&amp;   dos</p>"
	assert.Equal(t, "Uno & dos", StripMarkup(html))
}

func TestStripMarkup_PlainTextPassesThrough(t *testing.T) {
	assert.Equal(t, "sin etiquetas", StripMarkup("sin etiquetas"))
	assert.Equal(t, "", StripMarkup(""))
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 3, CountWords("Ana camina sola."))
	assert.Equal(t, 0, CountWords("   "))
}

func TestNormalize_FoldsDiacritics(t *testing.T) {
	assert.Equal(t, "montana de arritmia", Normalize("Montaña de Arritmía"))
}

func TestTokenize_FiltersShortAndStopwords(t *testing.T) {
	tokens := Tokenize("La montaña y el río que cruzan")
	assert.True(t, tokens["montana"])
	assert.True(t, tokens["rio"])
	assert.False(t, tokens["que"])
	assert.False(t, tokens["la"])
}

func TestEntityAliasList(t *testing.T) {
	e := Entity{Aliases: "el Zorro, don Diego; D. de la Vega"}
	assert.Equal(t, []string{"el Zorro", "don Diego", "D. de la Vega"}, e.AliasList())
	assert.Nil(t, Entity{}.AliasList())
}
