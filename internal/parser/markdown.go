// Package parser provides Markdown front-matter handling and body chunking.
package parser

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Field is one named front-matter value.
type Field struct {
	Name  string
	Value string
}

// Document is a Markdown document with optional YAML front matter.
// Field order from the source is preserved; new fields append at the end.
type Document struct {
	keys  []string
	nodes map[string]*yaml.Node
	body  string
}

// ParseDocument splits content into front matter and body. Front matter is
// delimited by "---" lines at the top of the file. Invalid YAML is treated
// as absent front matter rather than an error.
func ParseDocument(content string) *Document {
	doc := &Document{nodes: make(map[string]*yaml.Node)}

	remaining := content
	if strings.HasPrefix(content, "---\n") {
		rest := content[4:]
		if idx := strings.Index(rest, "\n---\n"); idx >= 0 {
			fmYAML := rest[:idx]
			remaining = strings.TrimPrefix(rest[idx+5:], "\n")

			var root yaml.Node
			if err := yaml.Unmarshal([]byte(fmYAML), &root); err == nil {
				doc.readMapping(&root)
			}
		} else if strings.HasSuffix(rest, "\n---") {
			fmYAML := rest[:len(rest)-4]
			remaining = ""

			var root yaml.Node
			if err := yaml.Unmarshal([]byte(fmYAML), &root); err == nil {
				doc.readMapping(&root)
			}
		}
	}

	doc.body = remaining
	return doc
}

// readMapping copies the top-level mapping pairs out of a parsed YAML node.
func (d *Document) readMapping(root *yaml.Node) {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return
	}
	m := root.Content[0]
	if m.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		key := m.Content[i].Value
		if _, seen := d.nodes[key]; !seen {
			d.keys = append(d.keys, key)
		}
		d.nodes[key] = m.Content[i+1]
	}
}

// Body returns the document body without front matter.
func (d *Document) Body() string {
	return d.body
}

// SetBody replaces the document body.
func (d *Document) SetBody(body string) {
	d.body = body
}

// Field returns the scalar value of a front-matter field.
func (d *Document) Field(name string) (string, bool) {
	n, ok := d.nodes[name]
	if !ok {
		return "", false
	}
	if n.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.Value, true
}

// ExtractFields returns the requested fields that are present with non-blank
// scalar values, in the requested order.
func (d *Document) ExtractFields(names []string) []Field {
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		v, ok := d.Field(name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		fields = append(fields, Field{Name: name, Value: v})
	}
	return fields
}

// SetField overwrites an existing field or appends a new one at the end.
func (d *Document) SetField(name, value string) {
	if _, ok := d.nodes[name]; !ok {
		d.keys = append(d.keys, name)
	}
	d.nodes[name] = &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

// FieldNames returns the field names in document order.
func (d *Document) FieldNames() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Serialize renders the document back to text: front matter (if any fields
// exist) followed by the body.
func (d *Document) Serialize() (string, error) {
	if len(d.keys) == 0 {
		return d.body, nil
	}

	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range d.keys {
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			d.nodes[key],
		)
	}

	out, err := yaml.Marshal(mapping)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(out)
	b.WriteString("---\n")
	if d.body != "" {
		b.WriteString("\n")
		b.WriteString(d.body)
	}
	return b.String(), nil
}
