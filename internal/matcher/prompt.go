package matcher

import (
	"fmt"
	"strings"
)

const systemInstruction = "You are a helpful assistant that determines if an academic paper is relevant to a user's research interests based on keywords."

const userPromptFormat = `Determine if this paper is relevant to a researcher interested in these keywords: %s

Paper text:
%s

Respond with a JSON object containing: 1) 'relevant': a boolean indicating if the paper is relevant, 2) 'score': a relevance score between 0 and 1, 3) 'matched_keywords': a list of the user's keywords that match the paper, and 4) 'explanation': a brief explanation of why the paper is or isn't relevant.`

func userPrompt(paperText string, keywords []string) string {
	return fmt.Sprintf(userPromptFormat, strings.Join(keywords, ", "), paperText)
}
