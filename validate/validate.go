// Command validate checks arena YAML configuration files. For each file it
// checks:
//   - YAML structure, rejecting unknown keys
//   - every value config.Validate checks (port range, log level and format,
//     opponent and archive settings)
//   - settings that load but will not work as intended, such as an ngrok
//     tunnel without a token
//
// Files are taken from the arguments, or from configs/*.yaml when none are given.
// The environment is not applied, so a file is judged on its own.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/boardgames/game/config"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateConfig decodes one file over the defaults and validates it.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	f, err := os.Open(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}
	defer f.Close()

	cfg := config.Default()
	if err := cfg.Decode(f); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid YAML: %v", err))
		return result
	}

	if err := cfg.Validate(); err != nil {
		result.Valid = false
		for _, line := range strings.Split(err.Error(), "\n") {
			line = strings.TrimPrefix(line, config.ErrInvalidConfig.Error()+": ")
			if line != "" {
				result.Errors = append(result.Errors, line)
			}
		}
		return result
	}

	return checkUsability(cfg, result)
}

// checkUsability flags settings that pass validation but will not work.
func checkUsability(cfg *config.Config, result ValidationResult) ValidationResult {
	if cfg.Ngrok.Enabled && cfg.Ngrok.AuthToken == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "ngrok.enabled requires ngrok.auth_token (or NGROK_AUTHTOKEN at runtime)")
	}
	if cfg.Ngrok.Domain != "" && !cfg.Ngrok.Enabled {
		result.Errors = append(result.Errors, "✓ Note: ngrok.domain is set but the tunnel is disabled")
	}
	if cfg.Opponent.AutoReply && cfg.Opponent.Kind == config.OpponentNone {
		result.Errors = append(result.Errors, "✓ Note: auto_reply has no effect without an opponent")
	}
	if cfg.Opponent.Kind == config.OpponentLLM && cfg.Opponent.Model == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "opponent.model is required for the llm opponent")
	}

	if result.Valid {
		result.Errors = append(result.Errors,
			fmt.Sprintf("✓ Server: %s", cfg.Addr()),
			fmt.Sprintf("✓ Opponent: %s", cfg.Opponent.Kind),
			fmt.Sprintf("✓ Archive: %s", cfg.Archive.Kind))
	}
	return result
}

// configFiles returns args, or every YAML file under configs/.
func configFiles(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join("configs", pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

// main validates each file, printing a concise report and exiting with
// non-zero status if any are invalid.
func main() {
	files, err := configFiles(os.Args[1:])
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("No configuration files found")
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
