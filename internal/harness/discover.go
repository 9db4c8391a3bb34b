package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// discoverTests lists the markdown test files directly inside folder,
// sorted by name. Subdirectories are not descended into; a folder with no
// test files is an error so a typo'd path never yields a passing run.
func discoverTests(folder string) ([]string, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("test folder not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("test folder is not a directory: %s", folder)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read test folder: %w", err)
	}

	var tests []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".md") {
			tests = append(tests, filepath.Join(folder, entry.Name()))
		}
	}
	sort.Strings(tests)

	if len(tests) == 0 {
		return nil, fmt.Errorf("no test files (*.md) found in %s", folder)
	}
	return tests, nil
}
