package folio

import (
	"fmt"
	"strings"
)

// SummaryInput feeds SummaryPrompt. YearsExperience and Industry are optional.
type SummaryInput struct {
	Name            string   `json:"name" validate:"required"`
	Title           string   `json:"title" validate:"required"`
	YearsExperience int      `json:"yearsExperience,omitempty" validate:"gte=0"`
	Skills          []string `json:"skills" validate:"required,min=1,dive,required"`
	Industry        string   `json:"industry,omitempty"`
}

// ExperienceInput feeds ExperiencePrompt. Technologies is optional.
type ExperienceInput struct {
	Company      string   `json:"company" validate:"required"`
	Position     string   `json:"position" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	Technologies []string `json:"technologies,omitempty"`
}

// ProjectInput feeds ProjectPrompt. Type is one of personal, professional or
// open-source when set.
type ProjectInput struct {
	Name             string   `json:"name" validate:"required"`
	Technologies     []string `json:"technologies" validate:"required,min=1,dive,required"`
	BasicDescription string   `json:"basicDescription" validate:"required"`
	Type             string   `json:"type,omitempty" validate:"omitempty,oneof=personal professional open-source"`
}

// SkillsExperience is one position listed in a SkillsPrompt.
type SkillsExperience struct {
	Position    string `json:"position" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// SkillsInput feeds SkillsPrompt.
type SkillsInput struct {
	Experiences    []SkillsExperience `json:"experiences" validate:"required,min=1,dive"`
	ExistingSkills []string           `json:"existingSkills,omitempty"`
}

// Rewrite tones.
const (
	ToneProfessional   = "professional"
	ToneConversational = "conversational"
	ToneCreative       = "creative"
)

// RewriteInput feeds RewritePrompt. An empty Tone means professional.
type RewriteInput struct {
	Content string `json:"content" validate:"required"`
	Context string `json:"context" validate:"required"`
	Tone    string `json:"tone,omitempty" validate:"omitempty,oneof=professional conversational creative"`
}

// CaptionInput feeds CaptionPrompt. Context is optional.
type CaptionInput struct {
	ProjectName string `json:"projectName" validate:"required"`
	Category    string `json:"category" validate:"required,oneof=screenshot certificate award whitepaper process"`
	Context     string `json:"context,omitempty"`
}

var systemInstructions = map[ContentType]string{
	ContentSummary:    "You are a professional portfolio content writer specializing in compelling personal summaries. Generate authentic, achievement-focused content that highlights the candidate's unique value proposition.",
	ContentExperience: "You are an expert resume and portfolio writer. Transform job descriptions into impactful narratives that showcase achievements, leadership, and measurable results.",
	ContentProject:    "You are a technical portfolio writer who excels at describing projects in a way that highlights both technical depth and business impact.",
	ContentSkills:     "You are a career coach who helps professionals identify and articulate their technical and soft skills based on their experience.",
	ContentRewrite:    "You are an expert editor specializing in portfolio content. Improve clarity, impact, and professionalism while maintaining authenticity.",
}

// CaptionSystemInstruction is the system instruction paired with CaptionPrompt.
const CaptionSystemInstruction = "You are a technical writer who creates clear, descriptive captions for portfolio visuals."

// SystemInstruction returns the fixed system instruction for ct, or "" for an
// unknown content type.
func SystemInstruction(ct ContentType) string {
	return systemInstructions[ct]
}

// field writes "label: value" on its own line, or nothing when value is empty.
func field(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

func joinList(items []string) string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ", ")
}

// SummaryPrompt asks for three summary variations keyed professional,
// conversational and creative.
func SummaryPrompt(in SummaryInput) string {
	var b strings.Builder
	b.WriteString("Generate a professional summary for a portfolio.\n\n")
	field(&b, "Name", in.Name)
	field(&b, "Title", in.Title)
	if in.YearsExperience > 0 {
		field(&b, "Years of Experience", fmt.Sprint(in.YearsExperience))
	}
	field(&b, "Key Skills", joinList(in.Skills))
	field(&b, "Industry", in.Industry)
	b.WriteString(`
Create 3 variations:
1. PROFESSIONAL (formal, corporate tone)
2. CONVERSATIONAL (friendly, approachable tone)
3. CREATIVE (unique, memorable tone)

Each should be:
- 2-3 sentences
- Highlight key strengths
- Be compelling and authentic
- Avoid clichés

Return as JSON:
{
  "professional": "...",
  "conversational": "...",
  "creative": "..."
}`)
	return b.String()
}

// ExperiencePrompt asks for an enhancedDescription and 3-5 highlights.
func ExperiencePrompt(in ExperienceInput) string {
	var b strings.Builder
	b.WriteString("Enhance this job experience description for a portfolio.\n\n")
	field(&b, "Company", in.Company)
	field(&b, "Position", in.Position)
	field(&b, "Current Description", in.Description)
	field(&b, "Technologies", joinList(in.Technologies))
	b.WriteString(`
Improve the description by:
- Using strong action verbs
- Quantifying impact where possible
- Highlighting leadership and initiative
- Making it concise and impactful

Also generate 3-5 key achievement highlights as bullet points.

Return as JSON:
{
  "enhancedDescription": "...",
  "highlights": ["...", "...", "..."]
}`)
	return b.String()
}

// ProjectPrompt asks for a description and 3-4 highlights.
func ProjectPrompt(in ProjectInput) string {
	var b strings.Builder
	b.WriteString("Generate a compelling project description for a portfolio.\n\n")
	field(&b, "Project Name", in.Name)
	field(&b, "Technologies", joinList(in.Technologies))
	field(&b, "Basic Description", in.BasicDescription)
	field(&b, "Project Type", in.Type)
	b.WriteString(`
Create a description that:
- Explains what the project does
- Highlights technical challenges solved
- Emphasizes impact or results
- Is engaging and clear
- Is 2-3 sentences

Also generate 3-4 key highlights as bullet points.

Return as JSON:
{
  "description": "...",
  "highlights": ["...", "...", "..."]
}`)
	return b.String()
}

// SkillsPrompt asks for categorized skill suggestions not already listed.
func SkillsPrompt(in SkillsInput) string {
	var b strings.Builder
	b.WriteString("Based on this work experience, suggest additional skills to add to a portfolio.\n\nWork Experience:\n")
	for _, exp := range in.Experiences {
		fmt.Fprintf(&b, "- %s: %s\n", exp.Position, exp.Description)
	}
	if existing := joinList(in.ExistingSkills); existing != "" {
		b.WriteString("\n")
		field(&b, "Existing Skills", existing)
	}
	b.WriteString(`
Suggest 5-10 additional skills that are:
- Relevant to the experience
- Not already listed
- Valuable for the industry
- Specific (not generic)

Categorize each skill as: technical, soft, language, tool, or framework

Return as JSON:
{
  "suggestions": [
    { "name": "...", "category": "technical" }
  ]
}`)
	return b.String()
}

// RewritePrompt asks for content rewritten in the requested tone.
func RewritePrompt(in RewriteInput) string {
	tone := in.Tone
	if tone == "" {
		tone = ToneProfessional
	}
	var b strings.Builder
	b.WriteString("Rewrite this portfolio content to improve clarity and impact.\n\n")
	field(&b, "Content to Rewrite", in.Content)
	field(&b, "Context", in.Context)
	field(&b, "Desired Tone", tone)
	b.WriteString(`
Rewrite the content to be:
- More compelling and engaging
- Clear and concise
- Free of clichés and generic phrases
- Authentic and specific
- Appropriate for a professional portfolio

Return as JSON:
{
  "rewritten": "..."
}`)
	return b.String()
}

// CaptionPrompt builds a caption request for a portfolio image. It is not one
// of ContentTypes; Generator.Caption sends it.
func CaptionPrompt(in CaptionInput) string {
	var b strings.Builder
	b.WriteString("Generate a caption for a portfolio image.\n\n")
	field(&b, "Project", in.ProjectName)
	field(&b, "Image Category", in.Category)
	field(&b, "Context", in.Context)
	b.WriteString(`
Create a caption that:
- Describes what the image shows
- Relates to the project/achievement
- Is concise (1-2 sentences)
- Is professional and descriptive

Return as JSON:
{
  "caption": "..."
}`)
	return b.String()
}

// BuildPrompt decodes and validates input for ct and returns the prompt with
// its system instruction. input may be the typed input struct, a pointer to
// it, a map[string]any, json.RawMessage or []byte.
func BuildPrompt(ct ContentType, input any) (prompt, system string, err error) {
	switch ct {
	case ContentSummary:
		in, err := decodeInput[SummaryInput](ct, input)
		if err != nil {
			return "", "", err
		}
		prompt = SummaryPrompt(in)
	case ContentExperience:
		in, err := decodeInput[ExperienceInput](ct, input)
		if err != nil {
			return "", "", err
		}
		prompt = ExperiencePrompt(in)
	case ContentProject:
		in, err := decodeInput[ProjectInput](ct, input)
		if err != nil {
			return "", "", err
		}
		prompt = ProjectPrompt(in)
	case ContentSkills:
		in, err := decodeInput[SkillsInput](ct, input)
		if err != nil {
			return "", "", err
		}
		prompt = SkillsPrompt(in)
	case ContentRewrite:
		in, err := decodeInput[RewriteInput](ct, input)
		if err != nil {
			return "", "", err
		}
		prompt = RewritePrompt(in)
	default:
		return "", "", &UnsupportedContentTypeError{ContentType: ct}
	}
	return prompt, SystemInstruction(ct), nil
}
