package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

const schemaName = "config.schema.json"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaName, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile(schemaName)
})

// Schema returns the JSON Schema that config files are validated against.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

var quotedName = regexp.MustCompile(`'([^']+)'`)

// validateNode checks a parsed YAML document against the schema. The node is
// used to turn the failing JSON pointer back into a line and column.
func validateNode(path string, root *yaml.Node) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}

	var doc any
	if err := root.Decode(&doc); err != nil {
		return &ConfigError{Path: path, Message: err.Error(), Err: err}
	}
	if doc == nil {
		return nil
	}

	// Round-trip through JSON so the validator sees json.Number and
	// map[string]any, as it would for a JSON document.
	raw, err := json.Marshal(doc)
	if err != nil {
		return &ConfigError{Path: path, Message: "unsupported YAML structure: " + err.Error(), Err: err}
	}
	var inst any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&inst); err != nil {
		return &ConfigError{Path: path, Message: err.Error(), Err: err}
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &ConfigError{Path: path, Message: err.Error(), Err: err}
	}

	// For oneOf the last branch is the most specific one in our schema.
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[len(leaf.Causes)-1]
	}

	pointer := leaf.InstanceLocation
	if m := quotedName.FindStringSubmatch(leaf.Message); m != nil && strings.HasPrefix(leaf.Message, "additionalProperties") {
		pointer = strings.TrimSuffix(pointer, "/") + "/" + m[1]
	}

	line, col := locate(root, pointer)
	return &ConfigError{
		Path:    path,
		Line:    line,
		Column:  col,
		Message: fmt.Sprintf("%s: %s", keyName(pointer), leaf.Message),
		Err:     err,
	}
}

// locate finds the node addressed by a JSON pointer. When a segment is a
// mapping key it returns the key's position. It stops at the deepest node
// that exists.
func locate(root *yaml.Node, pointer string) (line, col int) {
	node := root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	line, col = node.Line, node.Column

	for _, tok := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		if tok == "" {
			continue
		}
		tok = strings.ReplaceAll(strings.ReplaceAll(tok, "~1", "/"), "~0", "~")

		switch node.Kind {
		case yaml.MappingNode:
			found := false
			for i := 0; i+1 < len(node.Content); i += 2 {
				if node.Content[i].Value == tok {
					line, col = node.Content[i].Line, node.Content[i].Column
					node = node.Content[i+1]
					found = true
					break
				}
			}
			if !found {
				return line, col
			}
		case yaml.SequenceNode:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(node.Content) {
				return line, col
			}
			node = node.Content[idx]
			line, col = node.Line, node.Column
		default:
			return line, col
		}
	}
	return line, col
}

func keyName(pointer string) string {
	key := strings.ReplaceAll(strings.Trim(pointer, "/"), "/", ".")
	if key == "" {
		return "(root)"
	}
	return key
}
