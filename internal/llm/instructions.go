package llm

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/instructions.yaml
var instructionsYAML []byte

// Instructions holds the system instructions for each generation role.
type Instructions struct {
	Creator string `yaml:"creator"`
	Editor  string `yaml:"editor"`
}

// DefaultInstructions returns the embedded instruction catalogue.
func DefaultInstructions() (Instructions, error) {
	return ParseInstructions(instructionsYAML)
}

// ParseInstructions decodes a YAML catalogue and requires both roles.
func ParseInstructions(raw []byte) (Instructions, error) {
	var ins Instructions
	if err := yaml.Unmarshal(raw, &ins); err != nil {
		return Instructions{}, fmt.Errorf("parse instructions: %w", err)
	}
	ins.Creator = strings.TrimSpace(ins.Creator)
	ins.Editor = strings.TrimSpace(ins.Editor)
	if ins.Creator == "" || ins.Editor == "" {
		return Instructions{}, fmt.Errorf("parse instructions: creator and editor are required")
	}
	return ins, nil
}
