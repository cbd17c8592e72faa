package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/offscale/oas2ir/openapiir"
)

// controllerIR is one controller group with its fully built method models.
type controllerIR struct {
	Name    string                  `json:"name"`
	Methods []openapiir.MethodModel `json:"methods"`
}

// schemaIR pairs the two per-schema IR views.
type schemaIR struct {
	Name string                `json:"name"`
	Type openapiir.TypeShape   `json:"type"`
	Form openapiir.FormControl `json:"form"`
}

// irDump is the complete, deterministic output of one generation run.
type irDump struct {
	Source          string                     `json:"source"`
	Version         openapiir.Version          `json:"version"`
	Controllers     []controllerIR             `json:"controllers"`
	Schemas         []schemaIR                 `json:"schemas"`
	SecuritySchemes []openapiir.SecurityScheme `json:"securitySchemes,omitempty"`
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.LUTC)
	log.SetPrefix("oas2ir: ")

	if err := newRootCommand().Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func newRootCommand() *cobra.Command {
	var (
		specPath   string
		outFile    string
		format     string
		skipRemote bool
		maxDepth   int
	)

	cmd := &cobra.Command{
		Use:           "oas2ir",
		Short:         "Compile an OpenAPI/Swagger document into a generator-ready IR",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if specPath == "" {
				return fmt.Errorf("the --spec flag is required")
			}
			dump, err := buildIR(specPath, skipRemote, maxDepth)
			if err != nil {
				return err
			}
			return writeIR(dump, outFile, format)
		},
	}

	cmd.Flags().StringVar(&specPath, "spec", "", "Path or URL of the OpenAPI specification (required)")
	cmd.Flags().StringVar(&outFile, "out", "", "Output file for the IR (default stdout)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")
	cmd.Flags().BoolVar(&skipRemote, "skip-remote", false, "Skip remote references during resolution")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 100, "Maximum depth for reference resolution")

	return cmd
}

func buildIR(specPath string, skipRemote bool, maxDepth int) (*irDump, error) {
	cache := openapiir.NewCache(openapiir.LoadOptions{SkipRemote: skipRemote, MaxDepth: maxDepth})
	doc, err := cache.Load(specPath)
	if err != nil {
		return nil, err
	}
	resolver := openapiir.NewResolver(cache, doc)

	dump := &irDump{Source: doc.URI, Version: doc.Version}

	operations := openapiir.ExtractOperations(doc)
	log.Printf("extracted %d operations", len(operations))

	for _, group := range openapiir.GroupByController(operations) {
		controller := controllerIR{Name: group.Name}
		for _, info := range group.Operations {
			method, err := openapiir.BuildMethodModel(info, resolver)
			if err != nil {
				return nil, err
			}
			controller.Methods = append(controller.Methods, method)
		}
		dump.Controllers = append(dump.Controllers, controller)
	}

	if doc.OAS.Components != nil {
		names := make([]string, 0, len(doc.OAS.Components.Schemas))
		for name := range doc.OAS.Components.Schemas {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			shape, err := openapiir.BuildTypeShape(name, resolver)
			if err != nil {
				return nil, err
			}
			form, err := openapiir.BuildFormModel(name, resolver)
			if err != nil {
				return nil, err
			}
			dump.Schemas = append(dump.Schemas, schemaIR{Name: name, Type: shape, Form: form})
		}
		log.Printf("built IR for %d schemas", len(names))
	}

	dump.SecuritySchemes = openapiir.SecuritySchemes(doc.OAS)

	return dump, nil
}

// marshalYAML round-trips through JSON so the YAML output carries the same
// camelCase keys as the JSON output.
func marshalYAML(dump *irDump) ([]byte, error) {
	jb, err := json.Marshal(dump)
	if err != nil {
		return nil, err
	}
	var tree map[string]interface{}
	if err := json.Unmarshal(jb, &tree); err != nil {
		return nil, err
	}
	return yaml.Marshal(tree)
}

func writeIR(dump *irDump, outFile, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "json":
		data, err = json.MarshalIndent(dump, "", "  ")
	case "yaml":
		data, err = marshalYAML(dump)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode IR: %w", err)
	}

	if outFile == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(outFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outFile, err)
	}
	log.Printf("IR written to %s", outFile)
	return nil
}
