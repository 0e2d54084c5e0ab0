package decision

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"swapsignal/internal/gateway/provider"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	intentSchemaFile    = "schemas/trade_intent.json"
	recommendSchemaFile = "schemas/order_recommendation.json"
)

var (
	schemaOnce      sync.Once
	intentSchema    *jsonschema.Schema
	recommendSchema *jsonschema.Schema
	schemaErr       error
)

// compiledSchemas returns the lenient schemas used to check replies. They accept numeric
// strings where the model is asked for numbers.
func compiledSchemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		intentSchema, schemaErr = compileSchema(intentSchemaFile)
		if schemaErr != nil {
			return
		}
		recommendSchema, schemaErr = compileSchema(recommendSchemaFile)
	})
	return intentSchema, recommendSchema, schemaErr
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", name, err)
	}
	return compiler.Compile(name)
}

// IntentResponseSchema is the structured-output schema sent with the extraction call.
func IntentResponseSchema() *provider.ResponseSchema {
	return responseSchema("trade_intent", "schemas/trade_intent.response.json")
}

// RecommendationResponseSchema is the structured-output schema sent with the recommendation call.
func RecommendationResponseSchema() *provider.ResponseSchema {
	return responseSchema("order_recommendation", "schemas/order_recommendation.response.json")
}

func responseSchema(name, file string) *provider.ResponseSchema {
	raw, err := schemaFS.ReadFile(file)
	if err != nil {
		panic(fmt.Sprintf("embedded schema %s missing: %v", file, err))
	}
	return &provider.ResponseSchema{Name: name, Schema: json.RawMessage(raw)}
}
