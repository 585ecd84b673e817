package transform

import "strings"

// transformationPrompt instructs the model to restructure a raw transcript
// into a knowledge document optimized for semantic search. The four
// placeholders are replaced verbatim by BuildPrompt.
const transformationPrompt = `You are a knowledge curator tasked with transforming a YouTube video transcript into a well-structured document optimized for knowledge retention and semantic search.

Transform the following transcript into a comprehensive knowledge document following these guidelines:

## Transformation Guidelines:

1. **Executive Summary** (2-3 paragraphs)
   - Provide a high-level overview of the video's main topic and key takeaways
   - Highlight the most important insights or conclusions

2. **Structured Content**
   - Organize the content into logical sections with clear headers
   - Use hierarchical structure (H2, H3, H4) to show relationships
   - Group related concepts together

3. **Key Concepts & Definitions**
   - Extract and define important terms, concepts, or frameworks mentioned
   - Explain technical terms for easier understanding

4. **Important Moments** (with timestamps)
   - Preserve timestamps for particularly valuable segments
   - Highlight key quotes or explanations
   - Mark actionable insights or recommendations

5. **Examples & Case Studies**
   - Extract and clearly present any examples, analogies, or case studies
   - Show how concepts are applied in practice

6. **Cross-References & Connections**
   - Note relationships between different topics discussed
   - Reference prerequisite knowledge or related concepts

7. **Actionable Takeaways**
   - Summarize practical steps, recommendations, or best practices
   - List key learnings in a concise format

## Formatting:
- Use **Markdown** formatting for structure and emphasis
- Use bullet points and numbered lists where appropriate
- Use **bold** for key terms and *italics* for emphasis
- Use code blocks for any technical content or commands
- Preserve timestamps as ` + "`[MM:SS]` or `[HH:MM:SS]`" + ` format

## Output Quality:
- Make the document **searchable** - use clear, descriptive language
- Make it **scannable** - use formatting to guide the eye
- Make it **comprehensive** - don't lose important information
- Make it **accurate** - maintain the speaker's intended meaning

## Video Information:
- **Title**: {{title}}
- **Video ID**: {{video_id}}
- **URL**: {{url}}

## Transcript:
{{transcript}}

---

Transform this transcript into a well-structured knowledge document following the guidelines above.
`

// BuildPrompt fills the transformation template. Title, video ID, URL, and
// the formatted transcript all appear verbatim in the result.
func BuildPrompt(title, videoID, url, formattedTranscript string) string {
	r := strings.NewReplacer(
		"{{title}}", title,
		"{{video_id}}", videoID,
		"{{url}}", url,
		"{{transcript}}", formattedTranscript,
	)
	return r.Replace(transformationPrompt)
}
