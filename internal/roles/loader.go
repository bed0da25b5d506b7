package roles

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/hiresense/internal/models"
)

// LoadCatalog loads the role keyword dictionary from a YAML or JSON file.
//
// The file is a mapping of role name to {required: [...], optional: [...]}.
// JSON is accepted because it is valid YAML.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roles file: %w", err)
	}

	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roles file %s: %w", path, err)
	}

	slog.Info("role catalog loaded", "file", path, "roles", catalog.Len())
	return catalog, nil
}

// ParseCatalog parses a role dictionary document, keeping key order
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Empty document
	if len(doc.Content) == 0 {
		return NewCatalog(), nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("roles document must be a mapping, got %s", kindName(root.Kind))
	}

	roles := make([]models.Role, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]

		name := strings.TrimSpace(keyNode.Value)
		if name == "" {
			return nil, fmt.Errorf("line %d: role name is required", keyNode.Line)
		}

		var rf roleFile
		if err := valueNode.Decode(&rf); err != nil {
			return nil, fmt.Errorf("role %q: %w", name, err)
		}

		roles = append(roles, models.Role{
			Name: name,
			RoleDefinition: models.RoleDefinition{
				Required: rf.Required,
				Optional: rf.Optional,
			},
		})
	}

	return NewCatalog(roles...), nil
}

// LoadInsights loads the role insights document. Its content is served as-is.
func LoadInsights(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read insights file: %w", err)
	}

	var insights any
	if err := yaml.Unmarshal(data, &insights); err != nil {
		return nil, fmt.Errorf("failed to parse insights file %s: %w", path, err)
	}
	if insights == nil {
		insights = map[string]any{}
	}

	slog.Info("role insights loaded", "file", path)
	return insights, nil
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}

// --- YAML file structs ---

// roleFile represents one role entry of the roles file
type roleFile struct {
	Required []string `yaml:"required"`
	Optional []string `yaml:"optional"`
}
