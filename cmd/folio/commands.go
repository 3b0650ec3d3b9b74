package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oraraka-deko/folio/folio"
)

func newProvidersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List providers, their models and whether a key is configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orch, closeFn, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			fc, err := a.cfg.Folio()
			if err != nil {
				return err
			}
			models := fc.Models

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tMODEL\tSTATUS")
			for _, p := range folio.AllProviders() {
				model := orch.Model(p)
				status := "configured"
				if !orch.HasProvider(p) {
					model = modelFor(models, p)
					status = "not configured (set " + p.EnvVar() + ")"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p, model, status)
			}
			return tw.Flush()
		},
	}
}

func modelFor(m folio.ModelSet, p folio.Provider) string {
	switch p {
	case folio.ProviderOpenAI:
		return m.OpenAI
	case folio.ProviderAnthropic:
		return m.Anthropic
	default:
		return m.Google
	}
}

func newParseCmd(a *app) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Extract a structured profile from plain résumé text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("failed to read resume text: %w", err)
			}

			orch, closeFn, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			profile, err := orch.ParseResume(cmd.Context(), string(text))
			if err != nil {
				return err
			}
			return a.writeJSON(out, profile)
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "Path to plain-text résumé (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the profile JSON here instead of stdout")
	mustMarkRequired(cmd, "in")
	return cmd
}

func newEnhanceCmd(a *app) *cobra.Command {
	var in, out string
	var sections bool
	cmd := &cobra.Command{
		Use:   "enhance",
		Short: "Enhance a structured profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("failed to read profile: %w", err)
			}
			var profile folio.Profile
			if err := json.Unmarshal(data, &profile); err != nil {
				return fmt.Errorf("failed to unmarshal profile JSON: %w", err)
			}

			orch, closeFn, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			var opts []folio.EnhanceOption
			if sections {
				opts = append(opts, folio.WithSectionEnhancement())
			}
			enhanced, err := orch.EnhanceProfile(cmd.Context(), &profile, opts...)
			if err != nil {
				return err
			}
			return a.writeJSON(out, enhanced)
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "Path to profile JSON (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the enhanced profile JSON here instead of stdout")
	cmd.Flags().BoolVar(&sections, "sections", false, "Also rewrite each experience and project entry")
	mustMarkRequired(cmd, "in")
	return cmd
}

func newGenerateCmd(a *app) *cobra.Command {
	var contentType, input, inputFile, provider, out string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate portfolio content of one type",
		Long: "Generate portfolio content. --type is one of " + contentTypeList() +
			". The input is a JSON object, inline with --input or from --input-file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readInput(input, inputFile)
			if err != nil {
				return err
			}

			var opts []folio.GeneratorOption
			if provider != "" {
				p, ok := folio.ParseProvider(provider)
				if !ok {
					return fmt.Errorf("unknown provider %q", provider)
				}
				opts = append(opts, folio.WithPreferredProvider(p))
			}

			orch, closeFn, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			data, resp, err := folio.NewGenerator(orch, opts...).SubmitResult(cmd.Context(), folio.ContentType(contentType), raw)
			if err != nil {
				var mre *folio.MalformedResponseError
				if errors.As(err, &mre) {
					a.log.Warn().Str("raw", mre.Raw).Msg("model output was not valid JSON")
				}
				return err
			}
			a.log.Info().
				Str("provider", string(resp.Provider)).
				Str("model", resp.Model).
				Msg("content generated")
			return a.writeJSON(out, data)
		},
	}
	cmd.Flags().StringVarP(&contentType, "type", "t", "", "Content type (required)")
	cmd.Flags().StringVar(&input, "input", "", "Task input as a JSON object")
	cmd.Flags().StringVar(&inputFile, "input-file", "", "Path to a JSON file with the task input")
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Preferred provider: openai, anthropic or google")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the result JSON here instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("input", "input-file")
	cmd.MarkFlagsOneRequired("input", "input-file")
	mustMarkRequired(cmd, "type")
	return cmd
}

func newCaptionCmd(a *app) *cobra.Command {
	var in folio.CaptionInput
	var provider, out string
	cmd := &cobra.Command{
		Use:   "caption",
		Short: "Write a caption for a portfolio image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []folio.GeneratorOption
			if provider != "" {
				p, ok := folio.ParseProvider(provider)
				if !ok {
					return fmt.Errorf("unknown provider %q", provider)
				}
				opts = append(opts, folio.WithPreferredProvider(p))
			}

			orch, closeFn, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			data, resp, err := folio.NewGenerator(orch, opts...).Caption(cmd.Context(), in)
			if err != nil {
				return err
			}
			a.log.Info().
				Str("provider", string(resp.Provider)).
				Str("model", resp.Model).
				Msg("caption generated")
			return a.writeJSON(out, data)
		},
	}
	cmd.Flags().StringVar(&in.ProjectName, "project", "", "Project the image belongs to (required)")
	cmd.Flags().StringVar(&in.Category, "category", "", "One of screenshot, certificate, award, whitepaper, process (required)")
	cmd.Flags().StringVar(&in.Context, "context", "", "Extra context for the caption")
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Preferred provider: openai, anthropic or google")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the result JSON here instead of stdout")
	mustMarkRequired(cmd, "project")
	mustMarkRequired(cmd, "category")
	return cmd
}

func readInput(inline, path string) (json.RawMessage, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		return json.RawMessage(data), nil
	}
	return json.RawMessage(inline), nil
}

func contentTypeList() string {
	types := folio.ContentTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func mustMarkRequired(cmd *cobra.Command, name string) {
	if err := cmd.MarkFlagRequired(name); err != nil {
		panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
	}
}
