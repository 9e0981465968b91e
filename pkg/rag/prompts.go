package rag

import (
	"fmt"
	"strings"
)

// questionAnsweringPrompt is the fixed system instruction for grounded Q&A.
const questionAnsweringPrompt = `You are an AI assistant that helps answer questions about transcripts.
Use the provided context to answer the question. If you cannot find the answer in the context, say so.
Be concise and direct in your answers.`

// titleGenerationPrompt is the fixed system instruction for session titles.
const titleGenerationPrompt = `You are an AI assistant that generates concise, descriptive titles for chat sessions.
The title should reflect the main topic or theme of the transcript.
Keep titles under 50 characters and make them clear and informative.`

// formatContext prefixes each chunk with a 1-based index marker so answers
// can be traced back to their supporting chunk.
func formatContext(chunks []string) string {
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		parts = append(parts, fmt.Sprintf("[%d] %s", i+1, chunk))
	}
	return strings.Join(parts, "\n\n")
}

// formatHistory renders chat history as role-prefixed turns, oldest first.
func formatHistory(turns []Turn) string {
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		parts = append(parts, t.Role+": "+t.Content)
	}
	return strings.Join(parts, "\n")
}

// buildAnswerPrompt assembles the full Q&A prompt: system instruction,
// indexed context block, chat history, and the question.
func buildAnswerPrompt(question string, chunks []string, history []Turn) string {
	return fmt.Sprintf("%s\n\nContext:\n%s\n\nQuestion: %s\n\nChat History:\n%s\n\nAnswer:",
		questionAnsweringPrompt, formatContext(chunks), question, formatHistory(history))
}

// buildTitlePrompt assembles the title-generation prompt. No retrieval step
// is involved.
func buildTitlePrompt(transcript string) string {
	return fmt.Sprintf("%s\n\nTranscript:\n%s\n\nTitle:", titleGenerationPrompt, transcript)
}
