package folio

import (
	"slices"
)

// Profile is the structured résumé produced by ParseResume and consumed by
// EnhanceProfile. Scalar fields the model did not find are omitted from
// the JSON form; lists are never nil after Normalize.
type Profile struct {
	Personal       ContactInfo     `json:"personal"`
	Summary        string          `json:"summary,omitempty"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Skills         []Skill         `json:"skills"`
	Projects       []Project       `json:"projects"`
	Certifications []Certification `json:"certifications"`
	Languages      []Language      `json:"languages"`
	Awards         []Award         `json:"awards"`
}

type ContactInfo struct {
	Name     string       `json:"name,omitempty"`
	Title    string       `json:"title,omitempty"`
	Email    string       `json:"email,omitempty"`
	Phone    string       `json:"phone,omitempty"`
	Location string       `json:"location,omitempty"`
	Website  string       `json:"website,omitempty"`
	Social   *SocialLinks `json:"social,omitempty"`
}

type SocialLinks struct {
	LinkedIn  string `json:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Medium    string `json:"medium,omitempty"`
	DevTo     string `json:"devto,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

// Experience is one job. An empty EndDate means the position is current.
type Experience struct {
	ID           string   `json:"id,omitempty"`
	Company      string   `json:"company,omitempty"`
	Position     string   `json:"position,omitempty"`
	Location     string   `json:"location,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
	Description  string   `json:"description,omitempty"`
	Highlights   []string `json:"highlights"`
	Technologies []string `json:"technologies,omitempty"`
}

type Education struct {
	ID          string   `json:"id,omitempty"`
	Institution string   `json:"institution,omitempty"`
	Degree      string   `json:"degree,omitempty"`
	Field       string   `json:"field,omitempty"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
	GPA         string   `json:"gpa,omitempty"`
	Honors      []string `json:"honors,omitempty"`
	Description string   `json:"description,omitempty"`
}

// SkillCategory groups skills for display.
type SkillCategory string

const (
	SkillTechnical SkillCategory = "technical"
	SkillSoft      SkillCategory = "soft"
	SkillLanguage  SkillCategory = "language"
	SkillTool      SkillCategory = "tool"
	SkillFramework SkillCategory = "framework"
)

// Proficiency is an optional self-assessed skill level.
type Proficiency string

const (
	ProficiencyBeginner     Proficiency = "beginner"
	ProficiencyIntermediate Proficiency = "intermediate"
	ProficiencyAdvanced     Proficiency = "advanced"
	ProficiencyExpert       Proficiency = "expert"
)

type Skill struct {
	ID          string        `json:"id,omitempty"`
	Name        string        `json:"name,omitempty"`
	Category    SkillCategory `json:"category,omitempty"`
	Proficiency Proficiency   `json:"proficiency,omitempty"`
}

type Project struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name,omitempty"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url,omitempty"`
	GitHub       string   `json:"github,omitempty"`
	Image        string   `json:"image,omitempty"`
	Highlights   []string `json:"highlights"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
}

type Certification struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	Issuer       string `json:"issuer,omitempty"`
	IssueDate    string `json:"issueDate,omitempty"`
	ExpiryDate   string `json:"expiryDate,omitempty"`
	CredentialID string `json:"credentialId,omitempty"`
	URL          string `json:"url,omitempty"`
}

type Language struct {
	Name        string `json:"name,omitempty"`
	Proficiency string `json:"proficiency,omitempty"`
}

type Award struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Issuer      string `json:"issuer,omitempty"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
}

// Normalize replaces nil lists with empty ones so the profile always
// serializes lists as [] rather than null.
func (p *Profile) Normalize() {
	p.Experience = nonNil(p.Experience)
	p.Education = nonNil(p.Education)
	p.Skills = nonNil(p.Skills)
	p.Projects = nonNil(p.Projects)
	p.Certifications = nonNil(p.Certifications)
	p.Languages = nonNil(p.Languages)
	p.Awards = nonNil(p.Awards)
	for i := range p.Experience {
		p.Experience[i].Highlights = nonNil(p.Experience[i].Highlights)
	}
	for i := range p.Projects {
		p.Projects[i].Highlights = nonNil(p.Projects[i].Highlights)
		p.Projects[i].Technologies = nonNil(p.Projects[i].Technologies)
	}
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	if p.Personal.Social != nil {
		s := *p.Personal.Social
		out.Personal.Social = &s
	}
	out.Experience = slices.Clone(p.Experience)
	for i := range out.Experience {
		out.Experience[i].Highlights = slices.Clone(out.Experience[i].Highlights)
		out.Experience[i].Technologies = slices.Clone(out.Experience[i].Technologies)
	}
	out.Education = slices.Clone(p.Education)
	for i := range out.Education {
		out.Education[i].Honors = slices.Clone(out.Education[i].Honors)
	}
	out.Skills = slices.Clone(p.Skills)
	out.Projects = slices.Clone(p.Projects)
	for i := range out.Projects {
		out.Projects[i].Technologies = slices.Clone(out.Projects[i].Technologies)
		out.Projects[i].Highlights = slices.Clone(out.Projects[i].Highlights)
	}
	out.Certifications = slices.Clone(p.Certifications)
	out.Languages = slices.Clone(p.Languages)
	out.Awards = slices.Clone(p.Awards)
	return &out
}

// SkillsIn returns the skills of category c, in profile order.
func (p *Profile) SkillsIn(c SkillCategory) []Skill {
	out := []Skill{}
	for _, s := range p.Skills {
		if s.Category == c {
			out = append(out, s)
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// EnhancedProfile pairs an untouched copy of the input profile with the
// AI-produced alternatives.
type EnhancedProfile struct {
	Original   Profile          `json:"original"`
	Enhanced   EnhancedSections `json:"enhanced"`
	Confidence ConfidenceScores `json:"confidence"`
}

type EnhancedSections struct {
	Summary    SummaryVersions      `json:"summary"`
	Experience []EnhancedExperience `json:"experience"`
	Skills     CategorizedSkills    `json:"skills"`
	Projects   []EnhancedProject    `json:"projects"`
	Metadata   ProfileMetadata      `json:"metadata"`
}

// SummaryVersions keeps the original summary next to each provider's rewrite.
type SummaryVersions struct {
	Original         string `json:"original,omitempty"`
	AnthropicVersion string `json:"claudeVersion,omitempty"`
	GoogleVersion    string `json:"geminiVersion,omitempty"`
	OpenAIVersion    string `json:"gpt4Version,omitempty"`
	Recommended      string `json:"recommended"`
}

// setVersion records text as p's version of the summary.
func (s *SummaryVersions) setVersion(p Provider, text string) {
	switch p {
	case ProviderOpenAI:
		s.OpenAIVersion = text
	case ProviderAnthropic:
		s.AnthropicVersion = text
	case ProviderGoogle:
		s.GoogleVersion = text
	}
}

type EnhancedExperience struct {
	Experience
	AIEnhanced ExperienceEnhancement `json:"aiEnhanced"`
	Confidence float64               `json:"confidence"`
}

type ExperienceEnhancement struct {
	Description   string   `json:"description"`
	Highlights    []string `json:"highlights"`
	ImpactMetrics []string `json:"impactMetrics"`
}

type EnhancedProject struct {
	Project
	AIEnhanced ProjectEnhancement `json:"aiEnhanced"`
	Confidence float64            `json:"confidence"`
}

type ProjectEnhancement struct {
	Description    string   `json:"description"`
	Highlights     []string `json:"highlights"`
	TechnicalDepth string   `json:"technicalDepth,omitempty"`
}

type CategorizedSkills struct {
	Technical  []Skill    `json:"technical"`
	Soft       []Skill    `json:"soft"`
	Languages  []Language `json:"languages"`
	Tools      []Skill    `json:"tools"`
	Frameworks []Skill    `json:"frameworks"`
}

// Seniority is derived from dated experience. Empty means unknown.
type Seniority string

const (
	SeniorityStudent   Seniority = "student"
	SeniorityJunior    Seniority = "junior"
	SeniorityMid       Seniority = "mid"
	SenioritySenior    Seniority = "senior"
	SeniorityExecutive Seniority = "executive"
)

type ProfileMetadata struct {
	// Industry is left empty; it is never guessed.
	Industry          string    `json:"industry"`
	Seniority         Seniority `json:"seniority,omitempty"`
	TargetRole        string    `json:"targetRole,omitempty"`
	YearsOfExperience int       `json:"yearsOfExperience"`
	Specializations   []string  `json:"specializations"`
}

// ConfidenceScores are each in [0,1].
type ConfidenceScores struct {
	Overall    float64 `json:"overall"`
	Summary    float64 `json:"summary"`
	Experience float64 `json:"experience"`
	Skills     float64 `json:"skills"`
	Projects   float64 `json:"projects"`
}
