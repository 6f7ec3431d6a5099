package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/sources.schema.json
var sourcesSchema string

//go:embed schemas/venues.schema.json
var venuesSchema string

//go:embed schemas/preferences.schema.json
var preferencesSchema string

var (
	schemaMu       sync.Mutex
	compiledSchema = map[string]*jsonschema.Schema{}
)

// validateDocument checks a decoded YAML document against its JSON Schema.
// The document is round-tripped through encoding/json so the validator sees
// the same value shapes it would for a JSON payload.
func validateDocument(name, schemaJSON string, yamlPayload []byte) error {
	schema, err := compileSchema(name, schemaJSON)
	if err != nil {
		return err
	}

	var doc any
	if err := yaml.Unmarshal(yamlPayload, &doc); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalize %s: %w", name, err)
	}

	decoder := json.NewDecoder(bytes.NewReader(normalized))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return fmt.Errorf("re-decode %s: %w", name, err)
	}

	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("%s schema validation failed: %w", name, err)
	}
	return nil
}

func compileSchema(name, schemaJSON string) (*jsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	if schema, ok := compiledSchema[name]; ok {
		return schema, nil
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	resource := name + ".schema.json"
	if err := compiler.AddResource(resource, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", resource, err)
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", resource, err)
	}

	compiledSchema[name] = schema
	return schema, nil
}
