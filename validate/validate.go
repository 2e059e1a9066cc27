// Command validate checks the profile files in the ../profiles directory. It
// checks:
//   - YAML/JSON structure and the rules every profile must satisfy
//   - The profile name matches its file name
//   - Bindings do not remap a canonical direction name to another direction
//   - Playability: the reference solution, typed with the profile's own keys,
//     puts every object on a goal
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/pushbox/game/config"
	"github.com/wricardo/pushbox/game/engine"
)

// referenceSolution solves the initial layout.
var referenceSolution = []engine.Direction{
	engine.Down, engine.Down, engine.Left, engine.Left, engine.Up,
	engine.Down, engine.Left, engine.Up,
}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateProfile loads and validates a single profile file.
func validateProfile(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	profile, err := config.ParseProfile(filePath, data)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	stem := strings.TrimSuffix(result.File, filepath.Ext(result.File))
	if !strings.EqualFold(stem, profile.Name) {
		result.fail("Profile name %q does not match file name %q", profile.Name, stem)
	}

	if result.Valid {
		playResult := validatePlayability(profile)
		if !playResult.Valid {
			result.Valid = false
		}
		result.Errors = append(result.Errors, playResult.Errors...)
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", profile.Name))
		for _, d := range engine.Directions {
			result.Errors = append(result.Errors, fmt.Sprintf("✓ %s: %s", d, strings.Join(profile.KeysFor(d), ", ")))
		}
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Glyphs: %s", string(profile.Glyphs.Runes())))
	}

	return result
}

// validatePlayability types the reference solution with the first key bound
// to each direction and checks that the puzzle ends solved.
func validatePlayability(profile *engine.Profile) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	eng, err := engine.NewEngine(profile)
	if err != nil {
		result.fail("Cannot start a game: %v", err)
		return result
	}

	tokens := make([]string, 0, len(referenceSolution))
	for _, d := range referenceSolution {
		keys := profile.KeysFor(d)
		if len(keys) == 0 {
			result.fail("No key for %s", d)
			return result
		}
		tokens = append(tokens, keys[0])
	}

	for i, m := range eng.BulkMove(tokens) {
		if !m.Outcome.Accepted() {
			result.fail("Move %d (%q) was %s", i+1, m.Token, m.Outcome)
		}
	}

	goals := engine.CountCells(eng.View(), engine.IsGoal)
	placed := engine.CountCells(eng.View(), engine.HasObject|engine.IsGoal)
	if placed != goals {
		result.fail("Playability failure: %d/%d goals covered after %q", placed, goals, strings.Join(tokens, ""))
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Playability: solved with %q", strings.Join(tokens, "")))
	}

	return result
}

func profileFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml", "*.json"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

// main validates every profile in ../profiles (or the directory given as the
// first argument), printing a concise report and exiting with non-zero status
// if any are invalid.
func main() {
	profileDir := "../profiles"
	if len(os.Args) > 1 {
		profileDir = os.Args[1]
	}

	files, err := profileFiles(profileDir)
	if err != nil {
		fmt.Printf("Error finding profile files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateProfile(file)

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
		fmt.Println("✅ All profiles are valid!")
	} else {
		fmt.Println("❌ Some profiles have errors")
		os.Exit(1)
	}
}
