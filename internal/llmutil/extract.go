// internal/llmutil/extract.go
package llmutil

import (
	"regexp"
	"strings"
)

var (
	pythonFenceRegex  = regexp.MustCompile("(?s)\x60\x60\x60python\\s*(.*?)\\s*\x60\x60\x60")
	genericFenceRegex = regexp.MustCompile("(?s)\x60\x60\x60\\s*(.*?)\\s*\x60\x60\x60")
)

// pythonOpeners are the line prefixes that mark the start of Python source
// in an unfenced reply.
var pythonOpeners = []string{"import ", "from ", "def ", "class ", "#", `"""`, "'''"}

// ExtractPythonCode pulls Python source out of an LLM reply. It tries three
// strategies in order, from the most to the least explicit markup:
//
//  1. the first ```python fenced block;
//  2. the largest generically fenced block, dropping a leading bare
//     language-tag line such as "python" or "py";
//  3. a line scan that keeps everything from the first line that looks like
//     Python (an import, a definition, a comment, or a docstring opener).
//
// When no strategy applies the trimmed reply is returned as-is.
func ExtractPythonCode(response string) string {
	response = strings.TrimSpace(response)

	if matches := pythonFenceRegex.FindStringSubmatch(response); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	if all := genericFenceRegex.FindAllStringSubmatch(response, -1); len(all) > 0 {
		code := ""
		for _, m := range all {
			if len(m[1]) > len(code) {
				code = m[1]
			}
		}
		code = strings.TrimSpace(code)
		if lines := strings.SplitN(code, "\n", 2); len(lines) > 0 {
			switch strings.ToLower(strings.TrimSpace(lines[0])) {
			case "python", "py", "python3":
				if len(lines) == 2 {
					code = lines[1]
				} else {
					code = ""
				}
			}
		}
		return strings.TrimSpace(code)
	}

	// No markdown at all; scan for the first line that opens Python code.
	lines := strings.Split(response, "\n")
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if hasAnyPrefix(stripped, pythonOpeners) {
			return strings.TrimSpace(strings.Join(lines[i:], "\n"))
		}
	}

	return response
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
