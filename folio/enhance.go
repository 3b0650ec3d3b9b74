package folio

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"
)

// EnhanceOption customizes EnhanceProfile.
type EnhanceOption func(*enhanceOptions)

type enhanceOptions struct {
	sections bool
}

// WithSectionEnhancement also rewrites every experience and project entry,
// one call per entry, run in parallel up to Config.EnhanceConcurrency.
func WithSectionEnhancement() EnhanceOption {
	return func(o *enhanceOptions) {
		o.sections = true
	}
}

// EnhanceProfile rewrites the narrative summary of p through the secondary
// provider. By default experience, projects and skills pass through unchanged
// with confidence 1. p is never modified; EnhancedProfile.Original is a copy.
func (o *Orchestrator) EnhanceProfile(ctx context.Context, p *Profile, opts ...EnhanceOption) (*EnhancedProfile, error) {
	const op = "enhance profile"
	if !o.HasProvider(ProviderAnthropic) {
		return nil, &ConfigurationError{Provider: ProviderAnthropic, Operation: op}
	}
	if p == nil {
		return nil, fmt.Errorf("%w: profile is nil", ErrInvalidInput)
	}

	var eo enhanceOptions
	for _, opt := range opts {
		opt(&eo)
	}

	original := p.Clone()
	original.Normalize()

	resp, err := o.generateWith(ctx, ProviderAnthropic, op, EnhancementPrompt(original), withJSONInstruction(EnhancementSystemInstruction))
	if err != nil {
		return nil, err
	}

	summaryText, summaryConf := summaryFromResponse(resp.Content)
	versions := SummaryVersions{Original: original.Summary, Recommended: original.Summary}
	if summaryText != "" {
		versions.setVersion(resp.Provider, summaryText)
		versions.Recommended = summaryText
	} else {
		o.log.Warn().Str("provider", string(resp.Provider)).Msg("summary enhancement returned no usable text")
	}

	// Work on a second copy so the enhanced entries never alias Original.
	work := original.Clone()
	experience := passthroughExperience(work.Experience)
	projects := passthroughProjects(work.Projects)

	if eo.sections {
		if err := o.enhanceSections(ctx, experience, projects); err != nil {
			return nil, err
		}
	}

	out := &EnhancedProfile{
		Original: *original,
		Enhanced: EnhancedSections{
			Summary:    versions,
			Experience: experience,
			Skills:     categorizeSkills(work),
			Projects: projects,
			Metadata: deriveMetadata(original, o.now()),
		},
	}

	c := &out.Confidence
	c.Summary = summaryConf
	c.Experience = meanConfidence(len(experience), func(i int) float64 { return experience[i].Confidence })
	c.Projects = meanConfidence(len(projects), func(i int) float64 { return projects[i].Confidence })
	c.Skills = 1
	c.Overall = (c.Summary + c.Experience + c.Projects + c.Skills) / 4
	return out, nil
}

func (o *Orchestrator) enhanceSections(ctx context.Context, experience []EnhancedExperience, projects []EnhancedProject) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.EnhanceConcurrency)

	for i := range experience {
		if strings.TrimSpace(experience[i].Description) == "" {
			continue
		}
		g.Go(func() error {
			return o.enhanceExperience(gctx, &experience[i])
		})
	}
	for i := range projects {
		if strings.TrimSpace(projects[i].Description) == "" {
			continue
		}
		g.Go(func() error {
			return o.enhanceProject(gctx, &projects[i])
		})
	}
	return g.Wait()
}

// enhanceExperience rewrites one entry in place. A malformed response keeps
// the original content with confidence 0; a provider failure is returned.
func (o *Orchestrator) enhanceExperience(ctx context.Context, e *EnhancedExperience) error {
	in := ExperienceInput{
		Company:      e.Company,
		Position:     e.Position,
		Description:  e.Description,
		Technologies: e.Technologies,
	}
	resp, err := o.generateWith(ctx, ProviderAnthropic, "enhance experience", ExperiencePrompt(in), withJSONInstruction(SystemInstruction(ContentExperience)))
	if err != nil {
		return err
	}

	desc, highlights, err := decodeRewrite(resp.Content, "enhancedDescription")
	if err != nil {
		o.log.Warn().Err(err).Str("company", e.Company).Msg("experience enhancement malformed, keeping original")
		e.Confidence = 0
		return nil
	}
	e.AIEnhanced = ExperienceEnhancement{
		Description:   desc,
		Highlights:    highlights,
		ImpactMetrics: impactMetrics(highlights),
	}
	e.Confidence = 1
	return nil
}

func (o *Orchestrator) enhanceProject(ctx context.Context, p *EnhancedProject) error {
	in := ProjectInput{
		Name:             p.Name,
		Technologies:     p.Technologies,
		BasicDescription: p.Description,
	}
	resp, err := o.generateWith(ctx, ProviderAnthropic, "enhance project", ProjectPrompt(in), withJSONInstruction(SystemInstruction(ContentProject)))
	if err != nil {
		return err
	}

	desc, highlights, err := decodeRewrite(resp.Content, "description")
	if err != nil {
		o.log.Warn().Err(err).Str("project", p.Name).Msg("project enhancement malformed, keeping original")
		p.Confidence = 0
		return nil
	}
	p.AIEnhanced.Description = desc
	p.AIEnhanced.Highlights = highlights
	p.Confidence = 1
	return nil
}

// decodeRewrite reads a description field and an optional highlights list.
func decodeRewrite(raw, descKey string) (string, []string, error) {
	obj, err := decodeJSONObject(raw)
	if err != nil {
		return "", nil, err
	}
	desc, _ := obj[descKey].(string)
	if strings.TrimSpace(desc) == "" {
		return "", nil, &MalformedResponseError{Raw: raw, Err: fmt.Errorf("missing %q", descKey)}
	}
	highlights := []string{}
	if list, ok := obj["highlights"].([]any); ok {
		for _, v := range list {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				highlights = append(highlights, s)
			}
		}
	}
	return desc, highlights, nil
}

// summaryFromResponse accepts {"summary": "..."} or, when the model ignored
// the JSON instruction, plain prose at lower confidence.
func summaryFromResponse(raw string) (string, float64) {
	obj, err := decodeJSONObject(raw)
	if err == nil {
		if s, ok := obj["summary"].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), 1
		}
		return "", 0
	}
	text := StripCodeFences(raw)
	if text == "" || strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		return "", 0
	}
	return text, 0.5
}

// categorizeSkills buckets p's skills for display. Skills with no category,
// or one outside the known set, land in Technical.
func categorizeSkills(p *Profile) CategorizedSkills {
	out := CategorizedSkills{
		Technical:  []Skill{},
		Soft:       p.SkillsIn(SkillSoft),
		Languages:  p.Languages,
		Tools:      p.SkillsIn(SkillTool),
		Frameworks: p.SkillsIn(SkillFramework),
	}
	for _, s := range p.Skills {
		switch s.Category {
		case SkillSoft, SkillTool, SkillFramework:
		default:
			out.Technical = append(out.Technical, s)
		}
	}
	return out
}

func passthroughExperience(in []Experience) []EnhancedExperience {
	out := make([]EnhancedExperience, len(in))
	for i, e := range in {
		out[i] = EnhancedExperience{
			Experience: e,
			AIEnhanced: ExperienceEnhancement{
				Description:   e.Description,
				Highlights:    nonNil(append([]string(nil), e.Highlights...)),
				ImpactMetrics: []string{},
			},
			Confidence: 1,
		}
	}
	return out
}

func passthroughProjects(in []Project) []EnhancedProject {
	out := make([]EnhancedProject, len(in))
	for i, p := range in {
		out[i] = EnhancedProject{
			Project: p,
			AIEnhanced: ProjectEnhancement{
				Description: p.Description,
				Highlights:  nonNil(append([]string(nil), p.Highlights...)),
			},
			Confidence: 1,
		}
	}
	return out
}

// impactMetrics picks the highlights that carry a number.
func impactMetrics(highlights []string) []string {
	out := []string{}
	for _, h := range highlights {
		if strings.IndexFunc(h, unicode.IsDigit) >= 0 {
			out = append(out, h)
		}
	}
	return out
}

func meanConfidence(n int, at func(int) float64) float64 {
	if n == 0 {
		return 1
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += at(i)
	}
	return sum / float64(n)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006/01",
	"01/2006",
	"1/2006",
	"Jan 2006",
	"January 2006",
	"Jan. 2006",
	"2006",
}

// parseResumeDate understands the date spellings résumés commonly use.
// "Present" and its synonyms resolve to now.
func parseResumeDate(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "present", "current", "now", "today", "ongoing":
		return now, true
	case "":
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var executiveWords = map[string]bool{
	"chief": true, "cto": true, "ceo": true, "cfo": true, "coo": true,
	"vp": true, "svp": true, "director": true, "founder": true, "co-founder": true,
}

func isExecutiveTitle(title string) bool {
	title = strings.ToLower(title)
	if strings.Contains(title, "vice president") || strings.Contains(title, "head of") {
		return true
	}
	words := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
	for _, w := range words {
		if executiveWords[w] {
			return true
		}
	}
	return false
}

// deriveMetadata computes years of experience and seniority from experience
// entries whose dates parse. An entry with an unreadable start or end date is
// skipped. Nothing is guessed: with no dated entries both stay zero.
func deriveMetadata(p *Profile, now time.Time) ProfileMetadata {
	md := ProfileMetadata{Specializations: specializations(p.Experience)}

	type span struct{ start, end time.Time }
	var spans []span
	allInternships := true
	executive := false
	for _, e := range p.Experience {
		start, ok := parseResumeDate(e.StartDate, now)
		if !ok {
			continue
		}
		end := now
		if e.EndDate != "" {
			t, ok := parseResumeDate(e.EndDate, now)
			if !ok {
				continue
			}
			end = t
		}
		if end.Before(start) {
			continue
		}
		spans = append(spans, span{start, end})

		if !strings.Contains(strings.ToLower(e.Position), "intern") {
			allInternships = false
		}
		if isExecutiveTitle(e.Position) {
			executive = true
		}
	}
	if len(spans) == 0 {
		return md
	}

	// Overlapping positions count once.
	sort.Slice(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })
	var total time.Duration
	cur := spans[0]
	for _, s := range spans[1:] {
		if s.start.After(cur.end) {
			total += cur.end.Sub(cur.start)
			cur = s
			continue
		}
		if s.end.After(cur.end) {
			cur.end = s.end
		}
	}
	total += cur.end.Sub(cur.start)
	md.YearsOfExperience = int(total.Hours() / (24 * 365.25))

	switch {
	case executive:
		md.Seniority = SeniorityExecutive
	case allInternships:
		md.Seniority = SeniorityStudent
	case md.YearsOfExperience < 2:
		md.Seniority = SeniorityJunior
	case md.YearsOfExperience < 6:
		md.Seniority = SeniorityMid
	default:
		md.Seniority = SenioritySenior
	}
	return md
}

// specializations returns technologies used in at least two positions, most
// frequent first, at most five.
func specializations(exps []Experience) []string {
	counts := map[string]int{}
	names := map[string]string{}
	for _, e := range exps {
		seen := map[string]bool{}
		for _, t := range e.Technologies {
			key := strings.ToLower(strings.TrimSpace(t))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			counts[key]++
			if _, ok := names[key]; !ok {
				names[key] = strings.TrimSpace(t)
			}
		}
	}

	keys := make([]string, 0, len(counts))
	for k, n := range counts {
		if n >= 2 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > 5 {
		keys = keys[:5]
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = names[k]
	}
	return out
}
