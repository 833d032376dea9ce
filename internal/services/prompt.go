package services

import (
	"strconv"
	"strings"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/domain/videos"
)

const (
	headingRawTranscript = "TRANSCRIPT WITH TIMESTAMPS:"
	headingExcerpts      = "RELEVANT TRANSCRIPT EXCERPTS (chronological):"
)

var answerInstructions = []string{
	"Answer questions based ONLY on the transcript content",
	`When mentioning events, ALWAYS include the timestamp (e.g., "At 00:05:32, the speaker explains...")`,
	"Be conversational and helpful",
	"If information is not in the transcript, say so politely",
	"For time-based questions (when/what time), provide exact timestamps",
	"You can reference multiple timestamps if relevant",
}

var exampleResponses = []string{
	`"At 00:02:15, the speaker mentions that..."`,
	`"Between 00:05:00 and 00:06:30, you can see..."`,
	`"This topic is discussed at 00:03:45"`,
}

// SystemPrompt renders the video details, the grounding context and the
// answering rules.
func SystemPrompt(tr *videos.Transcript, context string, usedRetrieval bool) string {
	description := strings.TrimSpace(tr.Description)
	if description == "" {
		description = "Not available"
	}
	heading := headingRawTranscript
	if usedRetrieval {
		heading = headingExcerpts
	}

	var b strings.Builder
	b.WriteString("You are a helpful AI assistant that answers questions about YouTube videos based on their transcripts.\n\n")
	b.WriteString("VIDEO INFORMATION:\n")
	b.WriteString("Title: " + tr.Title + "\n")
	b.WriteString("Channel: " + tr.ChannelTitle + "\n")
	b.WriteString("Description: " + description + "\n\n")
	b.WriteString(heading + "\n")
	b.WriteString(context)
	b.WriteString("\n\nINSTRUCTIONS:\n")
	for i, line := range answerInstructions {
		b.WriteString(strconv.Itoa(i+1) + ". " + line + "\n")
	}
	b.WriteString("\nEXAMPLE RESPONSES:\n")
	for i, line := range exampleResponses {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- " + line)
	}
	return b.String()
}
