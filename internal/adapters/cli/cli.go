package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"portfolio-agent/internal/app"
)

// Run executes a one-shot CLI command and exits.
// args is os.Args[1:] — the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	switch args[0] {
	case "ask", "a":
		if len(args) < 2 {
			log.Fatal("Usage: app ask \"<question>\"")
		}
		result, err := svc.Chat(ctx, "", args[1])
		if err != nil {
			log.Fatalf("Query failed: %v", err)
		}
		if result.Clarification != nil {
			fmt.Fprintln(os.Stderr, "Needs clarification:", result.Reply)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)

	case "props", "properties":
		result, err := svc.ListProperties(ctx)
		if err != nil {
			log.Fatalf("Failed to list properties: %v", err)
		}
		for _, p := range result.Properties {
			fmt.Println(p)
		}

	case "tenants":
		result, err := svc.ListTenants(ctx)
		if err != nil {
			log.Fatalf("Failed to list tenants: %v", err)
		}
		for _, t := range result.Tenants {
			fmt.Println(t)
		}

	default:
		log.Fatalf("Unknown command: %s\nAvailable: ask, props, tenants", args[0])
	}
}
