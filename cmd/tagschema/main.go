package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"reflect"

	"github.com/invopop/jsonschema"

	"rift-and-ruin/server/combat/tags"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", filepath.Join("docs", "schema", "tag-catalog.schema.json"), "output path for the JSON schema")
	flag.Parse()

	schema := buildSchema()

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("tagschema: marshal schema: %v", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		log.Fatalf("tagschema: create output dir: %v", err)
	}
	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		log.Fatalf("tagschema: write temp schema: %v", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		log.Fatalf("tagschema: replace schema: %v", err)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	entrySchema := reflector.ReflectFromType(reflect.TypeOf(tags.CatalogEntry{}))
	entrySchema.Version = ""
	entrySchema.Title = "Tag Definition"
	entrySchema.Description = "One designer-authored tag: a new tag or an overlay over a built-in one."
	entrySchema.AdditionalProperties = &jsonschema.Schema{}

	// The object form keys entries by tag name, so the name field inside
	// the entry becomes optional there.
	keyedEntry := *entrySchema
	keyedEntry.Required = nil

	arraySchema := &jsonschema.Schema{
		Type:        "array",
		Title:       "Tag List",
		Description: "Catalog expressed as an array of tag definitions.",
		Items:       entrySchema,
	}
	objectSchema := &jsonschema.Schema{
		Type:                 "object",
		Title:                "Tag Map",
		Description:          "Catalog expressed as an object keyed by tag name.",
		AdditionalProperties: &keyedEntry,
	}

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Rift & Ruin Tag Catalog",
		Description: "Validates designer-authored tag definitions in config/tags/definitions.json.",
		OneOf: []*jsonschema.Schema{
			arraySchema,
			objectSchema,
		},
	}
}
