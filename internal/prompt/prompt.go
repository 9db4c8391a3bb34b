// Package prompt assembles the markdown instructions handed to the guarded
// agent: the untrusted test scenario wrapped in harness boilerplate that
// tells the agent where and how to report its outcome.
package prompt

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are running inside a disposable test container. Your working directory is {{WORK_DIR}}.

Carry out the following test scenario exactly as written:

---

{{TEST_CONTENT}}

---

When you are done, report the outcome by writing a JSON file to {{STATUS_FILE}}:
- on success write {"status": "success"}
- on failure write {"status": "failure", "error": "<what went wrong>"}

Write the status file as the very last step. Do not print the status JSON to stdout instead of writing the file.`

// Build substitutes the test scenario and harness paths into the prompt
// template. Both paths must be absolute so the instructions stay valid no
// matter where the agent wanders inside the container.
func Build(testContent, workDir, statusPath string) (string, error) {
	if strings.TrimSpace(testContent) == "" {
		return "", fmt.Errorf("test file is empty")
	}

	replacer := strings.NewReplacer(
		"{{WORK_DIR}}", workDir,
		"{{TEST_CONTENT}}", strings.TrimSpace(testContent),
		"{{STATUS_FILE}}", statusPath,
	)
	return replacer.Replace(promptTemplate), nil
}
