package advice

import (
	"fmt"
	"strings"
)

const narrationSystemPrompt = `You write friendly, practical lifestyle advice based on a traditional constitution questionnaire. You never diagnose illness or suggest medication. If a concern sounds serious, suggest seeing a doctor.`

func buildNarrationMessage(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Constitution type: %s\n", in.Name)
	fmt.Fprintf(&b, "Description: %s\n", in.Static.Description)
	fmt.Fprintf(&b, "Match score: %.0f, confidence: %.0f%%\n", in.Score, in.Confidence)
	if in.Age != "" {
		fmt.Fprintf(&b, "Age band: %s\n", in.Age)
	}
	if in.Gender != "" {
		fmt.Fprintf(&b, "Gender: %s\n", in.Gender)
	}

	b.WriteString("\nRespondent's own words:\n")
	if in.Concern == "" {
		b.WriteString("None given\n")
	} else {
		fmt.Fprintf(&b, "%q\n", in.Concern)
	}

	if len(in.Static.DailyTips) > 0 {
		b.WriteString("\nStandard tips for this type:\n")
		for _, tip := range in.Static.DailyTips {
			fmt.Fprintf(&b, "- %s\n", tip)
		}
	}

	b.WriteString(`
Instructions:
1. Summarise in 2-3 sentences what this constitution type means for this person. Refer to their own words when given.
2. Give up to 5 concrete tips. Adapt the standard tips to the respondent rather than repeating them.
3. Plain text only. No markdown.`)

	return b.String()
}
