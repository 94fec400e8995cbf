package guard

import (
	"regexp"
	"strings"
)

// The model replies with line-oriented sections:
//
//	ESTADO: DONE|CONTINUE (continuation) or PASS|FAIL (verification)
//	RESUMEN: / RAZON: free text
//	TEXTO: everything that follows
//
// Parsing must degrade gracefully: when markers are absent the whole
// response becomes the text block and the safe status applies (CONTINUE is
// bounded by maxRounds, PASS never rewrites the candidate).

// VerdictStatus is the continuity verification outcome.
type VerdictStatus string

const (
	VerdictPass VerdictStatus = "PASS"
	VerdictFail VerdictStatus = "FAIL"
)

// Verdict is the parsed continuity response. Malformed marks responses
// missing the expected markers; such verdicts always carry the safe
// defaults.
type Verdict struct {
	Status    VerdictStatus
	Reason    string
	Text      string
	Malformed bool
}

// RoundStatus is the model's self-reported continuation signal.
type RoundStatus string

const (
	RoundContinue RoundStatus = "CONTINUE"
	RoundDone     RoundStatus = "DONE"
)

// Round is the parsed continuation-round response.
type Round struct {
	Status    RoundStatus
	Summary   string
	Text      string
	Malformed bool
}

var sectionMarkerRe = regexp.MustCompile(`(?i)^\s*(ESTADO|RESUMEN|RAZON|RAZÓN|TEXTO)\s*:\s*`)

// splitSections walks the response line by line, collecting marker-tagged
// sections. Text before the first marker is discarded; the TEXTO section
// runs to the end of the response.
func splitSections(raw string) map[string]string {
	sections := map[string]string{}
	current := ""
	var buf []string

	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(buf, "\n"))
		}
		buf = buf[:0]
	}

	for _, line := range strings.Split(raw, "\n") {
		if m := sectionMarkerRe.FindStringSubmatch(line); m != nil && current != "TEXTO" {
			flush()
			current = strings.ToUpper(m[1])
			if current == "RAZÓN" {
				current = "RAZON"
			}
			buf = append(buf, line[len(m[0]):])
			continue
		}
		if current != "" {
			buf = append(buf, line)
		}
	}
	flush()
	return sections
}

// ParseVerdict parses a continuity verification response. The safe default
// is PASS: a response we cannot read must never rewrite the candidate.
func ParseVerdict(raw string) Verdict {
	sections := splitSections(raw)
	v := Verdict{
		Status: VerdictPass,
		Reason: sections["RAZON"],
		Text:   sections["TEXTO"],
	}

	switch statusWord(sections["ESTADO"]) {
	case "PASS", "OK":
		v.Status = VerdictPass
	case "FAIL":
		v.Status = VerdictFail
	default:
		// Unreadable status: the safe verdict is PASS, so the text block is
		// never applied; carry the whole response as the text payload.
		v.Malformed = true
		if v.Text == "" {
			v.Text = strings.TrimSpace(raw)
		}
	}
	return v
}

// ParseRound parses a continuation-round response. The safe default is
// CONTINUE, failing open toward more rounds; maxRounds bounds the loop.
func ParseRound(raw string) Round {
	sections := splitSections(raw)
	r := Round{
		Status:  RoundContinue,
		Summary: sections["RESUMEN"],
		Text:    sections["TEXTO"],
	}

	switch statusWord(sections["ESTADO"]) {
	case "DONE", "TERMINADO", "FIN":
		r.Status = RoundDone
	case "CONTINUE", "CONTINUAR":
		r.Status = RoundContinue
	default:
		r.Malformed = true
	}

	if _, ok := sections["TEXTO"]; !ok {
		r.Malformed = true
		r.Text = strings.TrimSpace(raw)
	}
	return r
}

func statusWord(section string) string {
	fields := strings.Fields(strings.ToUpper(section))
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,;:!")
}
