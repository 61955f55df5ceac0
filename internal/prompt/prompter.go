// Package prompt implements the synchronous yes/no confirmation gates that
// guard destructive migration stages.
package prompt

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const (
	defaultYesSuffixConstant = " [Y/n] "
	defaultNoSuffixConstant  = " [y/N] "
	invalidAnswerMessage     = "Please answer yes or no.\n"
	maximumAttemptsConstant  = 3
)

var affirmativeResponses = map[string]bool{"y": true, "yes": true}

var negativeResponses = map[string]bool{"n": true, "no": true}

// IOConfirmationPrompter reads confirmation responses from an io.Reader.
// An empty response, or end of input, selects the default answer.
type IOConfirmationPrompter struct {
	reader        *bufio.Reader
	writer        io.Writer
	defaultAnswer bool
}

// NewIOConfirmationPrompter constructs a prompter from the provided reader and writer.
func NewIOConfirmationPrompter(input io.Reader, output io.Writer, defaultAnswer bool) *IOConfirmationPrompter {
	if output == nil {
		output = io.Discard
	}
	return &IOConfirmationPrompter{reader: bufio.NewReader(input), writer: output, defaultAnswer: defaultAnswer}
}

// Confirm writes the prompt with a [Y/n] or [y/N] suffix and interprets the reply.
// Unrecognized replies are asked again a bounded number of times and then count as a refusal,
// regardless of the default answer.
func (prompter *IOConfirmationPrompter) Confirm(prompt string) (bool, error) {
	suffix := defaultNoSuffixConstant
	if prompter.defaultAnswer {
		suffix = defaultYesSuffixConstant
	}

	for attempt := 0; attempt < maximumAttemptsConstant; attempt++ {
		if _, writeError := io.WriteString(prompter.writer, strings.TrimRight(prompt, " ")+suffix); writeError != nil {
			return false, writeError
		}

		response, readError := prompter.reader.ReadString('\n')
		if readError != nil && !errors.Is(readError, io.EOF) {
			return false, readError
		}

		normalizedResponse := strings.ToLower(strings.TrimSpace(response))
		switch {
		case len(normalizedResponse) == 0:
			return prompter.defaultAnswer, nil
		case affirmativeResponses[normalizedResponse]:
			return true, nil
		case negativeResponses[normalizedResponse]:
			return false, nil
		}

		if errors.Is(readError, io.EOF) {
			return false, nil
		}
		if _, writeError := io.WriteString(prompter.writer, invalidAnswerMessage); writeError != nil {
			return false, writeError
		}
	}
	return false, nil
}
