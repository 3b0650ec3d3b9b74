package folio

import (
	"encoding/json"
	"strings"
)

// JSONOutputInstruction is appended to the system instruction of every call
// whose response is parsed as JSON.
const JSONOutputInstruction = "Output MUST be valid JSON."

// ExtractionSystemInstruction is the system instruction for ParseResume.
const ExtractionSystemInstruction = `You are an expert resume parser. Your goal is to extract structured information from a resume text.
Output the data in valid JSON format according to the provided schema.
Be precise and don't hallucinate. If information is missing, omit the field or use an empty array.`

// EnhancementSystemInstruction is the system instruction for EnhanceProfile.
const EnhancementSystemInstruction = `You are a professional career coach and copywriter.
Your goal is to enhance a user's resume data for their portfolio.
Improve the tone, highlight impact and metrics, and ensure the language is professional and compelling.
Avoid clichés and use strong action verbs.
Focus on narrative and professional tone.`

// ExtractionPrompt asks the model to turn raw résumé text into a Profile.
func ExtractionPrompt(text string) string {
	var b strings.Builder
	b.WriteString(`Extract the following information from the resume text below:
1. Contact Info (name, title, email, phone, location, website, social links)
2. Professional Summary
3. Work Experience (company, position, location, dates, description, highlights, technologies)
4. Education (institution, degree, field, dates, gpa, honors)
5. Skills (categorized into technical, soft, language, tool, framework)
6. Projects
7. Certifications
8. Languages
9. Awards

Use these top-level keys: personal, summary, experience, education, skills, projects, certifications, languages, awards.
Dates are strings such as "2021-03" or "Mar 2021". Leave endDate out for a current position.

Resume Text:
---
`)
	b.WriteString(strings.TrimSpace(text))
	b.WriteString(`
---

Output only the JSON.`)
	return b.String()
}

// EnhancementPrompt asks for a rewritten narrative summary of p.
func EnhancementPrompt(p *Profile) string {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		// Profile only holds strings and slices; this cannot fail.
		data = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("Write an enhanced professional summary for the portfolio of the person described by the resume data below.\n")
	if p.Summary != "" {
		b.WriteString("Improve on their current summary rather than replacing its facts.\n")
	}
	b.WriteString(`The summary should be 2-4 sentences, emphasize impact and results, and use only facts present in the data.

Resume Data:
`)
	b.Write(data)
	b.WriteString(`

Return as JSON:
{
  "summary": "..."
}`)
	return b.String()
}

// withJSONInstruction joins a system instruction with JSONOutputInstruction.
func withJSONInstruction(system string) string {
	if system == "" {
		return JSONOutputInstruction
	}
	return system + "\n" + JSONOutputInstruction
}
