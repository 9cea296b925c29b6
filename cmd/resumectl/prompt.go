package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"resume-builder/internal/bootstrap"
	"resume-builder/internal/generation"
	"resume-builder/internal/llm"
	"resume-builder/internal/profiles"
)

// promptCmd runs one model against the creator instructions without
// persisting anything. Useful when tuning instructions or trying a model.
var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Try the creator instructions against a model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		model, _ := cmd.Flags().GetString("model")
		profilePath, _ := cmd.Flags().GetString("profile")
		sourcePath, _ := cmd.Flags().GetString("source")
		outPath, _ := cmd.Flags().GetString("out")

		var fields profiles.Fields
		if err := readProfile(profilePath, &fields); err != nil {
			return err
		}
		req := generation.NewRequest{Profile: profiles.Merge(nil, fields)}
		if sourcePath != "" {
			text, err := readSource(cmd, sourcePath)
			if err != nil {
				return err
			}
			req.SourceText = text
		}
		input, err := generation.NewInput(req)
		if err != nil {
			return err
		}

		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if model == "" && len(a.Config.LLMModels) > 0 {
			model = a.Config.LLMModels[0]
		}
		instructions, err := bootstrap.LoadInstructions(a.Config)
		if err != nil {
			return err
		}
		raw, err := a.Provider.Invoke(cmd.Context(), llm.Invocation{
			Model:        model,
			Instructions: instructions.Creator,
			Input:        input,
		})
		if err != nil {
			return err
		}
		markup, err := generation.ExtractMarkup(raw)
		if err != nil {
			return fmt.Errorf("model %s: %w", model, err)
		}

		if strings.TrimSpace(outPath) == "" {
			_, err = fmt.Fprintln(outWriter, markup)
			return err
		}
		return os.WriteFile(outPath, []byte(markup), 0o644)
	},
}

var instructionsCmd = &cobra.Command{
	Use:   "instructions <file>",
	Short: "Validate an instruction catalogue",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		ins, err := llm.ParseInstructions(raw)
		if err != nil {
			return err
		}
		return printJSON(map[string]int{
			"creator_chars": len(ins.Creator),
			"editor_chars":  len(ins.Editor),
		})
	},
}

func init() {
	rootCmd.AddCommand(promptCmd, instructionsCmd)

	promptCmd.Flags().String("model", "", "model id, optionally prefixed with provider: (default first of LLM_MODELS)")
	promptCmd.Flags().String("profile", "", "path to a JSON profile")
	promptCmd.Flags().String("source", "", "path to an existing resume (pdf or docx)")
	promptCmd.Flags().String("out", "", "write markup to this file instead of stdout")
}
