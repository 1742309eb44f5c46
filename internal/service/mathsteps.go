// internal/service/mathsteps.go
package service

import (
	"regexp"
	"strconv"
	"strings"

	"eliza_tutor/internal/model"
)

var stepHeaderRe = regexp.MustCompile(`(?m)^\s*(?:\*\*)?Step\s+(\d+)\s*[:.)]\*{0,2}\s*(.*?)\s*(?:\*\*)?\s*$`)

// ParseMathSteps extracts a worked solution from a model response. A
// response encodes one as "Step N: ..." lines, optionally followed inside
// the step by "Equation:" and "Explanation:" lines. Returns nil when the
// response has no step structure at all.
func ParseMathSteps(content string) []model.MathStep {
	matches := stepHeaderRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}

	var steps []model.MathStep
	for i, m := range matches {
		number, err := strconv.Atoi(content[m[2]:m[3]])
		if err != nil {
			number = i + 1
		}
		description := strings.TrimSpace(content[m[4]:m[5]])

		// Body runs until the next step header or the end of the text.
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := content[m[1]:end]

		step := model.MathStep{
			StepNumber:  number,
			Description: description,
		}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "*"))
			if rest, ok := strings.CutPrefix(line, "Equation:"); ok && step.Equation == nil {
				eq := strings.TrimSpace(rest)
				step.Equation = &eq
			} else if rest, ok := strings.CutPrefix(line, "Explanation:"); ok && step.Explanation == nil {
				ex := strings.TrimSpace(rest)
				step.Explanation = &ex
			}
		}
		steps = append(steps, step)
	}
	return steps
}
