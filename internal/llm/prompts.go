package llm

import (
	"fmt"
	"strings"

	"writewme/internal/book"
)

// PromptBuilder constructs the Spanish-language prompts for every pipeline
// stage. The structured markers (ESTADO/RESUMEN/RAZON/TEXTO) are the wire
// contract parsed by the guard package; keep them in sync.
type PromptBuilder struct{}

const systemPersona = "Eres un asistente de escritura para novelas largas. Respeta siempre la voz del autor y responde unicamente con el formato pedido."

// SystemPrompt is shared by every generation call.
func (pb *PromptBuilder) SystemPrompt() string {
	return systemPersona
}

func writeEntityContext(sb *strings.Builder, entities []book.Entity) {
	if len(entities) == 0 {
		return
	}
	sb.WriteString("\nBiblia de la historia (hechos que no puedes contradecir):\n")
	for _, e := range entities {
		label := "Personaje"
		if e.Kind == book.KindLocation {
			label = "Lugar"
		}
		fmt.Fprintf(sb, "- %s %s", label, e.Name)
		if aliases := e.AliasList(); len(aliases) > 0 {
			fmt.Fprintf(sb, " (alias: %s)", strings.Join(aliases, ", "))
		}
		desc := strings.TrimSpace(e.Description)
		if desc == "" {
			desc = strings.TrimSpace(e.Notes)
		}
		if desc != "" {
			fmt.Fprintf(sb, ": %s", desc)
		}
		sb.WriteString("\n")
	}
}

func writeLengthHint(sb *strings.Builder, preset book.LengthPreset) {
	switch preset {
	case book.PresetShort:
		sb.WriteString("\nExtension objetivo del capitulo: corta (alrededor de 1.000 palabras).\n")
	case book.PresetLong:
		sb.WriteString("\nExtension objetivo del capitulo: larga (alrededor de 4.000 palabras).\n")
	case book.PresetMedium:
		sb.WriteString("\nExtension objetivo del capitulo: media (alrededor de 2.500 palabras).\n")
	}
}

// BuildRewritePrompt asks for a full rewritten chapter following a user
// instruction.
func (pb *PromptBuilder) BuildRewritePrompt(ch book.Chapter, instruction string, entities []book.Entity, recentText string) string {
	var sb strings.Builder
	sb.WriteString("Tarea: reescribe el capitulo siguiendo la instruccion del autor.\n")
	fmt.Fprintf(&sb, "\nInstruccion del autor: %s\n", strings.TrimSpace(instruction))
	writeEntityContext(&sb, entities)
	writeLengthHint(&sb, ch.LengthPreset)
	if recent := strings.TrimSpace(recentText); recent != "" {
		sb.WriteString("\nContexto reciente de la conversacion:\n")
		sb.WriteString(recent)
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nCapitulo actual (%s):\n%s\n", ch.Title, ch.PlainText())
	sb.WriteString("\nResponde solo con el texto completo del capitulo reescrito. ")
	sb.WriteString("Si quieres resumir tus cambios, agrega al final una linea '" + ChangeSummaryMarker + "' seguida del resumen.\n")
	return sb.String()
}

// ChangeSummaryMarker separates the chapter body from an optional trailing
// change summary in generation output.
const ChangeSummaryMarker = "=== CAMBIOS ==="

// BuildRecoveryPrompt is the single length-recovery generation issued by the
// expansion guard.
func (pb *PromptBuilder) BuildRecoveryPrompt(minWords int, originalText, candidateText, instruction string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "La version propuesta quedo demasiado corta: necesita al menos %d palabras.\n", minWords)
	fmt.Fprintf(&sb, "\nInstruccion del autor: %s\n", strings.TrimSpace(instruction))
	sb.WriteString("\nTexto original del capitulo:\n")
	sb.WriteString(originalText)
	sb.WriteString("\n\nVersion propuesta (insuficiente):\n")
	sb.WriteString(candidateText)
	fmt.Fprintf(&sb, "\n\nReescribe el capitulo completo cumpliendo la instruccion y alcanzando como minimo %d palabras. Responde solo con el texto del capitulo.\n", minWords)
	return sb.String()
}

// BuildContinuityPrompt asks for a PASS/FAIL continuity verdict over a
// candidate rewrite.
func (pb *PromptBuilder) BuildContinuityPrompt(instruction, chapterTitle, originalText, candidateText string, entities []book.Entity) string {
	var sb strings.Builder
	sb.WriteString("Tarea: verifica la continuidad narrativa de una version propuesta del capitulo.\n")
	fmt.Fprintf(&sb, "\nCapitulo: %s\n", chapterTitle)
	fmt.Fprintf(&sb, "Instruccion que origino el cambio: %s\n", strings.TrimSpace(instruction))
	writeEntityContext(&sb, entities)
	sb.WriteString("\nTexto original:\n")
	sb.WriteString(originalText)
	sb.WriteString("\n\nVersion propuesta:\n")
	sb.WriteString(candidateText)
	sb.WriteString("\n\nResponde exactamente con este formato:\n")
	sb.WriteString("ESTADO: PASS o FAIL\n")
	sb.WriteString("RAZON: motivo breve (solo si FAIL)\n")
	sb.WriteString("TEXTO: si FAIL, el capitulo completo corregido; si PASS, dejalo vacio\n")
	return sb.String()
}

// BuildContinuationPrompt drives one autonomous continuation round. In
// continuous mode the model also reports whether it considers the chapter
// finished; in fixed mode it only returns the updated chapter.
func (pb *PromptBuilder) BuildContinuationPrompt(ch book.Chapter, instruction, previousSummary string, round, maxRounds int, continuous bool, entities []book.Entity) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tarea: continua desarrollando el capitulo. Ronda %d de %d.\n", round, maxRounds)
	fmt.Fprintf(&sb, "\nObjetivo del autor: %s\n", strings.TrimSpace(instruction))
	writeEntityContext(&sb, entities)
	writeLengthHint(&sb, ch.LengthPreset)
	if prev := strings.TrimSpace(previousSummary); prev != "" {
		sb.WriteString("\nResumen de la ronda anterior:\n")
		sb.WriteString(prev)
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nCapitulo actual (%s):\n%s\n", ch.Title, ch.PlainText())
	if continuous {
		sb.WriteString("\nResponde exactamente con este formato:\n")
		sb.WriteString("ESTADO: CONTINUE si el capitulo necesita otra ronda, DONE si ya esta completo\n")
		sb.WriteString("RESUMEN: que avanzaste en esta ronda\n")
		sb.WriteString("TEXTO: el capitulo completo actualizado\n")
	} else {
		sb.WriteString("\nResponde solo con el texto completo del capitulo actualizado.\n")
	}
	return sb.String()
}

// BuildBibleSyncPrompt asks for new story entities mentioned in a chapter.
func (pb *PromptBuilder) BuildBibleSyncPrompt(chapterText string, known []book.Entity) string {
	var sb strings.Builder
	sb.WriteString("Tarea: detecta personajes y lugares que aparecen en el capitulo y todavia no estan en la biblia de la historia.\n")
	if len(known) > 0 {
		sb.WriteString("\nYa registrados (no los repitas):\n")
		for _, e := range known {
			fmt.Fprintf(&sb, "- %s\n", e.Name)
		}
	}
	sb.WriteString("\nCapitulo:\n")
	sb.WriteString(chapterText)
	sb.WriteString("\n\nResponde solo con lineas en este formato, una por hallazgo:\n")
	sb.WriteString("PERSONAJE: <nombre> | <descripcion breve>\n")
	sb.WriteString("LUGAR: <nombre> | <descripcion breve>\n")
	sb.WriteString("Si no hay hallazgos responde NINGUNO.\n")
	return sb.String()
}
