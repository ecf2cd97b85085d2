package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dgallion1/guidekb/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		sectionPath string
		text        string
		want        model.ChunkType
	}{
		{"recommendation in path", "3.1 Рекомендации по лечению", "обычный текст", model.TypeRecommendation},
		{"recommendation english", "", "It is recommended to start therapy", model.TypeRecommendation},
		{"algorithm", "Алгоритм действий врача", "", model.TypeAlgorithm},
		{"table", "", "Таблица 3. Дозировки препаратов", model.TypeTable},
		{"definition", "", "Definition of the condition follows", model.TypeDefinition},
		{"evidence", "", "Уровень доказательности A", model.TypeEvidence},
		{"appendix", "Приложение Б", "", model.TypeAppendix},
		{"other", "2 Раздел", "нейтральный текст без ключевых слов", model.TypeOther},
		{"case insensitive", "", "RECOMMENDATION grade A", model.TypeRecommendation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.sectionPath, tt.text))
		})
	}
}

func TestClassifyPriority(t *testing.T) {
	// Both families present: recommendation outranks table.
	got := Classify("", "Таблица с рекомендациями по дозированию")
	assert.Equal(t, model.TypeRecommendation, got)

	// Algorithm outranks appendix.
	got = Classify("Приложение В", "Алгоритм выбора терапии")
	assert.Equal(t, model.TypeAlgorithm, got)
}

func TestClassifyWindowBound(t *testing.T) {
	// A keyword past the 300-rune window must not influence the label.
	padding := strings.Repeat("ы", 350)
	got := Classify("", padding+" рекомендация")
	assert.Equal(t, model.TypeOther, got)
}
