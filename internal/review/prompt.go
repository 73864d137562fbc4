package review

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/rapid/pkg/formatting"
)

const systemPrompt = `You are an expert document reviewer. You judge whether the provided files satisfy a single check item and report the decision as structured JSON.

All responses must be in %s.`

const toolGuidance = `## Tools
Use knowledge_base_query when compliance depends on regulations, standards or internal policy. Use any other provided tool when the files are incomplete or ambiguous, or when your confidence would fall below 0.80.`

const confidenceGuide = `## Confidence
- 0.90-1.00: clear evidence
- 0.70-0.89: relevant evidence with some uncertainty
- 0.50-0.69: ambiguous evidence`

const documentSpec = `{
  "result": "pass" | "fail",
  "confidence": <number between 0 and 1>,
  "explanation": "<detailed reasoning>",
  "shortExplanation": "<summary of at most 80 characters>",
  "extractedText": "<relevant excerpt>",
  "pageNumber": <integer starting from 1>
}`

const citationSpec = `{
  "result": "pass" | "fail",
  "confidence": <number between 0 and 1>,
  "explanation": "<detailed reasoning>",
  "shortExplanation": "<summary of at most 80 characters>",
  "citations": ["<verbatim passage quoted from the documents>"],
  "pageNumber": <integer starting from 1>
}`

const imageSpec = `{
  "result": "pass" | "fail",
  "confidence": <number between 0 and 1>,
  "explanation": "<detailed reasoning>",
  "shortExplanation": "<summary of at most 80 characters>",
  "usedImageIndexes": [<zero-based indexes of images you relied on>]%s
}`

const boundingBoxField = `,
  "boundingBoxes": [
    {"imageIndex": <index>, "label": "<object label>", "coordinates": [<x1>, <y1>, <x2>, <y2>]}
  ]`

const boundingBoxNote = `
When objects related to the check item are visible, report their bounding boxes as [x1, y1, x2, y2] on a 0-1000 scale.`

// SystemPrompt returns the system prompt for the output language.
func SystemPrompt(language string) string {
	return fmt.Sprintf(systemPrompt, language)
}

// DocumentPrompt builds the user prompt for a document review.
func DocumentPrompt(job Job, files []File, s Strategy) string {
	var b strings.Builder
	writeCheck(&b, job)

	b.WriteString("## Files\n")
	if s.Access == AccessEmbedded {
		b.WriteString("The files are attached to this message as documents.\n")
	} else {
		b.WriteString("Open each file with the file_read tool.\n")
	}
	writeFileList(&b, files)

	b.WriteString("\n" + toolGuidance + "\n\n" + confidenceGuide + "\n\n")
	fmt.Fprintf(&b, "Write every JSON value in %s.\n\n", job.Language())

	if s.Citations() {
		b.WriteString("Quote the passages that support your decision verbatim in the citations array. ")
		b.WriteString("Output the JSON between the markers and nothing else inside them:\n\n")
		b.WriteString(formatting.StartMarker + "\n" + citationSpec + "\n" + formatting.EndMarker + "\n")
		return b.String()
	}

	b.WriteString("Respond only with JSON in this structure, without markdown fences:\n\n")
	b.WriteString(documentSpec + "\n")
	return b.String()
}

// ImagePrompt builds the user prompt for an image review. Bounding boxes
// are requested only from models that can produce them.
func ImagePrompt(job Job, files []File, modelID string) string {
	boxes := strings.Contains(modelID, "amazon.nova")

	var b strings.Builder
	writeCheck(&b, job)

	b.WriteString("## Files\nLoad each image with the image_reader tool. Images are addressed by zero-based index.\n")
	writeFileList(&b, files)

	b.WriteString("\n" + toolGuidance + "\n\n" + confidenceGuide + "\n")
	if boxes {
		b.WriteString(boundingBoxNote + "\n")
	}
	b.WriteString("\nList in usedImageIndexes only the images you relied on. An empty list means none were used.\n")
	fmt.Fprintf(&b, "Write every JSON value in %s.\n\n", job.Language())

	field := ""
	if boxes {
		field = boundingBoxField
	}
	b.WriteString("Respond only with JSON in this structure, without markdown fences:\n\n")
	fmt.Fprintf(&b, imageSpec+"\n", field)
	return b.String()
}

func writeCheck(b *strings.Builder, job Job) {
	fmt.Fprintf(b, "Review the files against this check item.\n\nCheck item: %s\nDescription: %s\n\n", job.CheckName, job.CheckDescription)
}

func writeFileList(b *strings.Builder, files []File) {
	for i, f := range files {
		fmt.Fprintf(b, "%d. %s\n", i, f.Path)
	}
}
