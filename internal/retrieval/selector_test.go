package retrieval

import (
	"testing"

	"writewme/internal/book"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func character(name, aliases, description string) book.Entity {
	return book.Entity{Kind: book.KindCharacter, Name: name, Aliases: aliases, Description: description}
}

func TestSelect_WithinCapReturnsAllUnchanged(t *testing.T) {
	entities := []book.Entity{
		character("Zoe", "", "aparece tarde"),
		character("Ana", "", "protagonista"),
	}

	out := Select(entities, "da igual la consulta", "", DefaultOptions())

	require.Len(t, out, 2)
	assert.Equal(t, "Zoe", out[0].Name)
	assert.Equal(t, "Ana", out[1].Name)
}

func TestSelect_NameMatchOutranksTokenOverlap(t *testing.T) {
	opts := Options{MaxCharacters: 2, MaxLocations: 4, RecencyWeight: 1}
	entities := []book.Entity{
		character("Bruno", "", "pescador del puerto"),
		character("Clara", "", "cocinera"),
		character("Ana", "", "detective"),
	}

	out := Select(entities, "haz que Ana hable con la cocinera", "", opts)

	require.Len(t, out, 2)
	assert.Equal(t, "Ana", out[0].Name)
	assert.Equal(t, "Clara", out[1].Name)
}

func TestSelect_AliasMatchesCaseAndAccentInsensitive(t *testing.T) {
	opts := Options{MaxCharacters: 1, MaxLocations: 1, RecencyWeight: 1}
	entities := []book.Entity{
		character("Diego de la Vega", "el Zorro", ""),
		character("Bruno", "", ""),
	}

	out := Select(entities, "EL ZORRO aparece de noche", "", opts)

	require.Len(t, out, 1)
	assert.Equal(t, "Diego de la Vega", out[0].Name)
}

func TestSelect_RecencyWeightPromotesRecentlyMentioned(t *testing.T) {
	opts := Options{MaxCharacters: 1, MaxLocations: 1, RecencyWeight: 2}
	entities := []book.Entity{
		character("Bruno", "", ""),
		character("Clara", "", ""),
	}

	out := Select(entities, "sigue la escena", "Clara cerro la puerta despacio", opts)

	require.Len(t, out, 1)
	assert.Equal(t, "Clara", out[0].Name)
}

func TestSelect_ZeroScoresFallBackToInputOrder(t *testing.T) {
	opts := Options{MaxCharacters: 2, MaxLocations: 1, RecencyWeight: 1}
	entities := []book.Entity{
		character("Bruno", "", ""),
		character("Clara", "", ""),
		character("Dario", "", ""),
	}

	out := Select(entities, "xyzzy", "", opts)

	require.Len(t, out, 2)
	assert.Equal(t, "Bruno", out[0].Name)
	assert.Equal(t, "Clara", out[1].Name)
}

func TestSelect_CapsCharactersAndLocationsIndependently(t *testing.T) {
	opts := Options{MaxCharacters: 1, MaxLocations: 1, RecencyWeight: 1}
	entities := []book.Entity{
		character("Ana", "", ""),
		character("Bruno", "", ""),
		{Kind: book.KindLocation, Name: "El Faro", Description: "faro abandonado"},
		{Kind: book.KindLocation, Name: "La Plaza"},
	}

	out := Select(entities, "Ana sube al faro abandonado", "", opts)

	require.Len(t, out, 2)
	assert.Equal(t, "Ana", out[0].Name)
	assert.Equal(t, book.KindCharacter, out[0].Kind)
	assert.Equal(t, "El Faro", out[1].Name)
	assert.Equal(t, book.KindLocation, out[1].Kind)
}

func TestSelect_DeterministicTieBreakByInputIndex(t *testing.T) {
	opts := Options{MaxCharacters: 1, MaxLocations: 1, RecencyWeight: 1}
	entities := []book.Entity{
		character("Ana", "", ""),
		character("Eva", "", ""),
	}

	// Both names appear in the query with identical weight; the earlier
	// input index must win, on every run.
	for i := 0; i < 10; i++ {
		out := Select(entities, "Ana y Eva caminan juntas", "", opts)
		require.Len(t, out, 1)
		assert.Equal(t, "Ana", out[0].Name)
	}
}
