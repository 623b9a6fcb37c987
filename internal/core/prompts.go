package core

import (
	"fmt"
)

var promptFormats = map[AnalysisKind]string{
	KindSummary: `Summarize this email in 2-3 crisp lines:

EMAIL:
%s`,
	KindBias: `Detect any emotional or political bias in the following email.
Give a bias score between 0 (neutral) and 1 (highly biased)
and explain the reasoning briefly.

EMAIL:
%s`,
	KindSentiment: `Give a sentiment analysis score between -1 and +1.
Also provide 1-2 lines of reasoning.

EMAIL:
%s`,
	KindClassification: `Classify this email as one of:
Work, Personal, Spam, Urgent, Support.

EMAIL:
%s`,
	KindSpam: `Determine whether the email is spam.
Return ONLY "Spam" or "Not Spam".

EMAIL:
%s`,
	KindFollowUp: `Examine the email and decide if it requires follow-up.

Respond ONLY with valid JSON:
{
    "needs_followup": true/false,
    "followup_reason": "",
    "suggested_timeframe": "",
    "action_items": []
}

EMAIL:
%s`,
}

// BuildPrompt formats the prompt for an analysis kind
func BuildPrompt(kind AnalysisKind, text string) (string, error) {
	format, ok := promptFormats[kind]
	if !ok {
		return "", fmt.Errorf("unsupported analysis kind: %s", kind)
	}
	return fmt.Sprintf(format, text), nil
}

// TextKinds lists the analysis kinds that return free text
func TextKinds() []AnalysisKind {
	return []AnalysisKind{KindSummary, KindBias, KindSentiment, KindClassification, KindSpam}
}
