package analysis

import (
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
)

// Sampling temperature for file analysis.
const analysisTemperature = 0.2

const (
	documentSystemPrompt = "Tu es un assistant qui résume des documents en français."
	imageSystemPrompt    = "Tu es un assistant d’analyse d’images. Extrais le texte et les éléments clés, en français."

	defaultDocumentInstruction = "Fais un résumé structuré (points clés, chiffres, alertes)."
	imageUserPrompt            = "Analyse cette image et fournis un résumé structuré (texte détecté, éléments clés, chiffres, alertes)."
)

// DocumentPrompt builds the user turn sent to the summarizer. Only the first
// MaxPromptChars characters of the document are included.
func DocumentPrompt(text, instruction string) string {
	excerpt := domain.Truncate(text, domain.MaxPromptChars)
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return fmt.Sprintf("Texte du PDF:\n%s\n\n%s", excerpt, defaultDocumentInstruction)
	}
	return fmt.Sprintf("Texte du PDF:\n%s\n\nConsigne: %s", excerpt, instruction)
}

// ImagePrompt builds the text part of the image analysis turn.
func ImagePrompt(instruction string) string {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return imageUserPrompt
	}
	return imageUserPrompt + "\n\nConsigne: " + instruction
}
