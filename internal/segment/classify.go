package segment

import (
	"strings"

	"github.com/dgallion1/guidekb/internal/model"
)

// keyword families evaluated top to bottom; the first family with any
// match wins. Each family carries Russian and English spellings.
var typeFamilies = []struct {
	keywords []string
	label    model.ChunkType
}{
	{[]string{"рекомендац", "recommend"}, model.TypeRecommendation},
	{[]string{"алгоритм", "algorithm"}, model.TypeAlgorithm},
	{[]string{"таблица", "table"}, model.TypeTable},
	{[]string{"определен", "definition"}, model.TypeDefinition},
	{[]string{"доказатель", "evidence"}, model.TypeEvidence},
	{[]string{"приложени", "appendix"}, model.TypeAppendix},
}

// classifyWindow bounds how much of the chunk's leading text is inspected.
const classifyWindow = 300

// Classify labels a chunk with its semantic type from lexical cues in the
// section path and the chunk's leading text. Deterministic: same input,
// same label.
func Classify(sectionPath, text string) model.ChunkType {
	window := text
	if r := []rune(window); len(r) > classifyWindow {
		window = string(r[:classifyWindow])
	}
	source := strings.ToLower(sectionPath + " " + window)

	for _, family := range typeFamilies {
		for _, kw := range family.keywords {
			if strings.Contains(source, kw) {
				return family.label
			}
		}
	}
	return model.TypeOther
}
