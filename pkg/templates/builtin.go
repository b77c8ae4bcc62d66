package templates

import (
	_ "embed"
)

// Built-in template names. They double as the file names `init` writes
// into the skill directory.
const (
	SpecTemplate      = "spec.yaml"
	CompanionTemplate = "SKILL.md"
)

var (
	//go:embed builtin/spec.yaml
	builtinSpec string

	//go:embed builtin/SKILL.md
	builtinCompanion string
)

func builtinContent(name string) (string, bool) {
	switch name {
	case SpecTemplate:
		return builtinSpec, true
	case CompanionTemplate:
		return builtinCompanion, true
	default:
		return "", false
	}
}

func builtinNames() []string {
	return []string{SpecTemplate, CompanionTemplate}
}
