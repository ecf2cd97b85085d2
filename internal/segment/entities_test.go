package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEntities(t *testing.T) {
	text := "Пациент получает Варфарин ежедневно. Варфарин требует контроля МНО-показателя. " +
		"Аспирин назначается реже."
	entities := ExtractEntities(text)
	require.NotEmpty(t, entities)

	// Most frequent term first.
	assert.Equal(t, "Варфарин", entities[0])
	assert.Contains(t, entities, "Аспирин")
	// Lowercase words are never entities.
	assert.NotContains(t, entities, "ежедневно")
}

func TestExtractEntitiesTiesKeepFirstOccurrence(t *testing.T) {
	entities := ExtractEntities("Bravo appears once. Alpha appears once too.")
	require.Len(t, entities, 2)
	assert.Equal(t, []string{"Bravo", "Alpha"}, entities)
}

func TestExtractEntitiesCap(t *testing.T) {
	var sb strings.Builder
	for _, w := range []string{"Alpha", "Bravo", "Carol", "Delta", "Early", "Forth", "Gamma", "Hotel", "India", "Julia", "Kilos", "Limas"} {
		sb.WriteString(w + " text. ")
	}
	entities := ExtractEntities(sb.String())
	assert.Len(t, entities, 10)
}

func TestExtractEntitiesEmpty(t *testing.T) {
	assert.Nil(t, ExtractEntities("no capitalized terms here"))
	assert.Nil(t, ExtractEntities(""))
}

func TestExpansionTerms(t *testing.T) {
	terms := ExpansionTerms("Варфарин и Аспирин. Снова Варфарин.")
	assert.Equal(t, []string{"Варфарин", "Аспирин", "Снова"}, terms)
}
