package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perfgen/perfgen/internal/ruleset"
)

// ValidationResult holds validation results for the rule store and
// template.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	RulesDir string            `json:"rules_dir"`
	Template string            `json:"template"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError is one load or schema failure.
type ValidationError struct {
	Code    string `json:"code"`
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var templatePath string

	cmd := &cobra.Command{
		Use:   "validate <rules-dir>",
		Short: "Validate rule dictionaries and the output template",
		Long: `Validate the rule dictionaries against the embedded schema and check
that the output template parses. This is the same validation a reload
performs, so a store that validates here will reload cleanly.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			return runValidate(formatter, args[0], templatePath)
		},
	}

	cmd.Flags().StringVar(&templatePath, "template", "config/template.json", "output template file")

	return cmd
}

func runValidate(formatter *OutputFormatter, rulesDir, templatePath string) error {
	result := ValidationResult{
		Valid:    true,
		RulesDir: rulesDir,
		Template: templatePath,
	}

	if _, err := ruleset.LoadDir(rulesDir); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, toValidationError(err))
	}
	if _, err := ruleset.LoadTemplate(templatePath); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, toValidationError(err))
	}

	if !result.Valid {
		if formatter.Format == "json" {
			if err := formatter.Success(result); err != nil {
				return err
			}
		} else {
			for _, ve := range result.Errors {
				if err := formatter.Error(ve.Code, fmt.Sprintf("%s: %s", ve.File, ve.Message), nil); err != nil {
					return err
				}
			}
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	formatter.VerboseLog("Rule store and template are valid")
	return formatter.Success(result)
}

func toValidationError(err error) ValidationError {
	var loadErr *ruleset.LoadError
	if errors.As(err, &loadErr) {
		return ValidationError{Code: loadErr.Code, File: loadErr.File, Message: loadErr.Message}
	}
	return ValidationError{Code: "VALIDATE_ERROR", Message: err.Error()}
}
