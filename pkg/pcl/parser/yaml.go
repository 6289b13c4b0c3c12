package parser

import (
	"os"

	"gopkg.in/yaml.v3"
)

// yamlFile is the intermediate structure a policy file decodes into, before
// transformation to AST.
type yamlFile struct {
	PCLVersion string       `yaml:"pcl_version"`
	Policies   []yamlPolicy `yaml:"policies"`
}

// yamlPolicy is one named policy entry.
type yamlPolicy struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	When        *yamlCondition `yaml:"when"`
}

// yamlCondition is one condition node. Exactly one of the variant groups may
// be set: all, any, not, exists, rcode, const, or a comparison (lhs/op/rhs).
type yamlCondition struct {
	All []yamlCondition `yaml:"all"`
	Any []yamlCondition `yaml:"any"`
	Not *yamlCondition  `yaml:"not"`

	Exists *yamlOperand `yaml:"exists"`
	RCode  string       `yaml:"rcode"`
	Const  *bool        `yaml:"const"`

	LHS *yamlOperand `yaml:"lhs"`
	Op  string       `yaml:"op"`
	RHS *yamlOperand `yaml:"rhs"`

	// Negate inverts the condition's result. The "!~" operator and "not" are
	// sugar for the same flag.
	Negate bool `yaml:"negate"`
}

// yamlOperand is one side of a comparison, or the subject of an exists test.
// Exactly one of attr, list, xlat, exec, regex or value selects the kind.
type yamlOperand struct {
	Attr  string     `yaml:"attr"`
	List  string     `yaml:"list"`
	Xlat  string     `yaml:"xlat"`
	Exec  string     `yaml:"exec"`
	Regex string     `yaml:"regex"`
	Flags string     `yaml:"flags"`
	Value yaml.Node  `yaml:"value"`
	Cast  string     `yaml:"cast"`
}

// parseYAMLFile reads and decodes a policy file into the intermediate
// structure.
func parseYAMLFile(path string) (*yamlFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseYAMLBytes(data)
}

// parseYAMLBytes decodes policy YAML from memory.
func parseYAMLBytes(data []byte) (*yamlFile, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
