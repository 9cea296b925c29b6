package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"resume-builder/internal/extract"
	"resume-builder/internal/profiles"
	"resume-builder/internal/resumes"
)

var resumesCmd = &cobra.Command{
	Use:   "resumes",
	Short: "Inspect and version resumes",
}

var resumeListCmd = &cobra.Command{
	Use:   "list <telegram-id>",
	Short: "List the resumes of a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.ResumesService.ListByUser(cmd.Context(), userID)
		if err != nil {
			return err
		}
		return printJSON(items)
	},
}

var resumeShowCmd = &cobra.Command{
	Use:   "show <resume-id>",
	Short: "Show a resume with its latest version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		detail, err := a.ResumesService.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(detail)
	},
}

var resumeVersionsCmd = &cobra.Command{
	Use:   "versions <resume-id>",
	Short: "List every version of a resume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		versions, err := a.ResumesService.ListVersions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(versions)
	},
}

var resumeMarkupCmd = &cobra.Command{
	Use:   "markup <resume-id> <version>",
	Short: "Print the stored markup of a version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("version must be an integer: %q", args[1])
		}
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		rc, err := a.ResumesService.OpenMarkup(cmd.Context(), args[0], version)
		if err != nil {
			return err
		}
		defer rc.Close()
		_, err = io.Copy(outWriter, rc)
		return err
	},
}

var resumeDeleteCmd = &cobra.Command{
	Use:   "delete <resume-id>",
	Short: "Delete a resume with all its versions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ResumesService.Delete(cmd.Context(), args[0])
	},
}

var resumeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate version 1 of a new resume",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, _ := cmd.Flags().GetInt64("user")
		title, _ := cmd.Flags().GetString("title")
		mode, _ := cmd.Flags().GetString("mode")
		profilePath, _ := cmd.Flags().GetString("profile")
		sourcePath, _ := cmd.Flags().GetString("source")

		in := resumes.CreateInput{UserID: userID, Title: title, CreationMode: resumes.CreationMode(mode)}
		if err := readProfile(profilePath, &in.Profile); err != nil {
			return err
		}
		if sourcePath != "" {
			text, err := readSource(cmd, sourcePath)
			if err != nil {
				return err
			}
			in.SourceText = text
			if in.CreationMode == "" {
				in.CreationMode = resumes.ModeImported
			}
		}

		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		detail, err := a.ResumesService.Create(cmd.Context(), in)
		if err != nil {
			return err
		}
		return printJSON(detail)
	},
}

var resumeEditCmd = &cobra.Command{
	Use:   "edit <resume-id>",
	Short: "Generate the next version of a resume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instruction, _ := cmd.Flags().GetString("instruction")
		profilePath, _ := cmd.Flags().GetString("profile")

		in := resumes.UpdateInput{Instruction: instruction}
		if err := readProfile(profilePath, &in.Profile); err != nil {
			return err
		}
		if cmd.Flags().Changed("title") {
			title, _ := cmd.Flags().GetString("title")
			in.Title = &title
		}

		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		detail, err := a.ResumesService.Update(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		return printJSON(detail)
	},
}

func readProfile(path string, dst *profiles.Fields) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode profile %s: %w", path, err)
	}
	return nil
}

func readSource(cmd *cobra.Command, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	return extract.Text(cmd.Context(), f, "", filepath.Base(path))
}

func init() {
	rootCmd.AddCommand(resumesCmd)
	resumesCmd.AddCommand(resumeListCmd, resumeShowCmd, resumeVersionsCmd, resumeMarkupCmd, resumeDeleteCmd, resumeCreateCmd, resumeEditCmd)

	resumeCreateCmd.Flags().Int64("user", 0, "telegram id of the owner")
	resumeCreateCmd.Flags().String("title", "", "resume title")
	resumeCreateCmd.Flags().String("mode", "", "creation mode: new, imported or template")
	resumeCreateCmd.Flags().String("profile", "", "path to a JSON profile")
	resumeCreateCmd.Flags().String("source", "", "path to an existing resume (pdf or docx) to import")
	_ = resumeCreateCmd.MarkFlagRequired("user")
	_ = resumeCreateCmd.MarkFlagRequired("title")

	resumeEditCmd.Flags().String("instruction", "", "what to change")
	resumeEditCmd.Flags().String("profile", "", "path to a JSON profile update")
	resumeEditCmd.Flags().String("title", "", "new resume title")
}
