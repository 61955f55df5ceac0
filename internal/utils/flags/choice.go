package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choicePlaceholderPrefix    = "<"
	choicePlaceholderSuffix    = ">"
	choiceSeparatorLiteral     = "|"
	choiceUsageEmptyTemplate   = "`%s`"
	choiceUsageFullTemplate    = "`%s` %s"
	choiceValueTypeConstant    = "string"
	choiceInvalidValueTemplate = "invalid value %q: expected one of %s"
	choiceListSeparatorLiteral = ", "
)

// FormatChoiceUsage builds a usage string where the default option is capitalized inside a placeholder.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := choicePlaceholderPrefix + strings.Join(highlightDefaultChoice(defaultChoice, choices), choiceSeparatorLiteral) + choicePlaceholderSuffix
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}

// AddChoiceFlag registers a string flag restricted to the provided choices, compared case-insensitively.
func AddChoiceFlag(flagSet *pflag.FlagSet, target *string, name string, defaultChoice string, choices []string, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}
	if target != nil {
		*target = defaultChoice
	}
	value := &choiceFlagValue{currentValue: defaultChoice, target: target, choices: append([]string{}, choices...)}
	flagSet.Var(value, name, FormatChoiceUsage(defaultChoice, choices, usage))
}

type choiceFlagValue struct {
	currentValue string
	target       *string
	choices      []string
}

func (value *choiceFlagValue) Set(rawValue string) error {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	for _, choice := range value.choices {
		if strings.ToLower(choice) == normalizedValue {
			value.currentValue = choice
			if value.target != nil {
				*value.target = choice
			}
			return nil
		}
	}
	return fmt.Errorf(choiceInvalidValueTemplate, rawValue, strings.Join(value.choices, choiceListSeparatorLiteral))
}

func (value *choiceFlagValue) String() string {
	if value == nil {
		return ""
	}
	return value.currentValue
}

func (value *choiceFlagValue) Type() string {
	return choiceValueTypeConstant
}

func highlightDefaultChoice(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	highlighted := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))

	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if len(trimmedChoice) == 0 {
			continue
		}
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}
		seen[normalizedChoice] = struct{}{}

		if normalizedChoice == normalizedDefault {
			highlighted = append(highlighted, strings.ToUpper(trimmedChoice))
			continue
		}
		highlighted = append(highlighted, trimmedChoice)
	}

	return highlighted
}
