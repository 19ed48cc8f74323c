package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"ironhaul/server/internal/netsync/proto"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	schema := buildSchema()

	if err := writeSchema(outPath, schema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}

	clientSchema := reflector.Reflect(new(proto.ClientMessage))
	clientSchema.Version = ""
	clientSchema.Title = "Client Frame"
	clientSchema.Description = "Frame a peer sends to the lockstep host: commands, heartbeats, scenario requests."

	serverSchema := reflector.Reflect(new(proto.ServerMessage))
	serverSchema.Version = ""
	serverSchema.Title = "Server Frame"
	serverSchema.Description = "Frame the host sends to its peers: join acks, tick confirmations, command receipts, heartbeats."

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Ironhaul Wire Protocol",
		Description: fmt.Sprintf("Websocket frames exchanged between a lockstep host and its peers (protocol version %d).", proto.Version),
		OneOf: []*jsonschema.Schema{
			clientSchema,
			serverSchema,
		},
	}
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
