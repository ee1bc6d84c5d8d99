// Package yamlnode turns YAML documents into values the json encoder writes
// in document order. Mappings become *json.OrderedMap, sequences []any and
// scalars their resolved Go type. JSON input is valid YAML and converts the
// same way.
package yamlnode

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/freekieb7/nanojson/json"
)

var (
	ErrRecursiveAlias = errors.New("yamlnode: recursive alias")
	ErrComplexKey     = errors.New("yamlnode: mapping key is not a scalar")
)

const mergeTag = "!!merge"

// Decode converts every document of the stream read from r.
func Decode(r io.Reader) ([]any, error) {
	dec := yaml.NewDecoder(r)

	var docs []any
	for {
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				return docs, nil
			}
			return nil, err
		}

		v, err := Convert(&node)
		if err != nil {
			return nil, err
		}
		docs = append(docs, v)
	}
}

// Unmarshal converts a single document.
func Unmarshal(data []byte) (any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	return Convert(&node)
}

// Convert resolves n and everything below it.
func Convert(n *yaml.Node) (any, error) {
	c := converter{active: make(map[*yaml.Node]bool)}
	return c.convert(n)
}

type converter struct {
	// aliases currently being expanded
	active map[*yaml.Node]bool
}

func (c *converter) convert(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.convert(n.Content[0])
	case yaml.AliasNode:
		if c.active[n.Alias] {
			return nil, fmt.Errorf("%w: *%s at line %d", ErrRecursiveAlias, n.Value, n.Line)
		}
		c.active[n.Alias] = true
		defer delete(c.active, n.Alias)
		return c.convert(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := c.convert(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		m := json.NewOrderedMap(len(n.Content) / 2)
		if err := c.fill(m, n, false); err != nil {
			return nil, err
		}
		return m, nil
	case yaml.ScalarNode:
		return scalar(n)
	}
	return nil, fmt.Errorf("yamlnode: unknown node kind %d at line %d", n.Kind, n.Line)
}

// fill copies the entries of mapping n into m. Merged entries never replace
// keys that are already present.
func (c *converter) fill(m *json.OrderedMap, n *yaml.Node, merged bool) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]

		if isMerge(key) {
			if err := c.merge(m, value); err != nil {
				return err
			}
			continue
		}

		if key.Kind != yaml.ScalarNode {
			return fmt.Errorf("%w at line %d", ErrComplexKey, key.Line)
		}
		if merged {
			if _, ok := m.Get(key.Value); ok {
				continue
			}
		}

		v, err := c.convert(value)
		if err != nil {
			return err
		}
		m.Set(key.Value, v)
	}
	return nil
}

func (c *converter) merge(m *json.OrderedMap, value *yaml.Node) error {
	switch value.Kind {
	case yaml.AliasNode:
		if c.active[value.Alias] {
			return fmt.Errorf("%w: *%s at line %d", ErrRecursiveAlias, value.Value, value.Line)
		}
		c.active[value.Alias] = true
		defer delete(c.active, value.Alias)
		return c.merge(m, value.Alias)
	case yaml.MappingNode:
		return c.fill(m, value, true)
	case yaml.SequenceNode:
		for _, item := range value.Content {
			if err := c.merge(m, item); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("yamlnode: merge value at line %d is not a mapping", value.Line)
}

func isMerge(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Value == "<<" &&
		(n.Tag == "" || n.Tag == "!" || n.ShortTag() == mergeTag)
}

func scalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!str", "!!binary":
		return n.Value, nil
	case "!!null":
		return nil, nil
	case "!!timestamp":
		// decoding into any would keep the text
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return nil, err
		}
		return t, nil
	case "!!bool", "!!int", "!!float":
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	// Application specific tags keep their text
	return n.Value, nil
}
