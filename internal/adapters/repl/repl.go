package repl

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"portfolio-agent/internal/app"
)

// Run starts the interactive REPL loop.
// It reads commands from reader, dispatches slash commands deterministically,
// and routes natural language input through the query pipeline. One REPL
// process is one conversation session, so follow-up questions carry over.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader) {
	props, err := svc.ListProperties(ctx)
	if err != nil {
		fmt.Printf("Failed to load portfolio: %v\n", err)
		return
	}

	fmt.Println("Portfolio Assistant")
	fmt.Printf("Loaded %d properties.\n", len(props.Properties))
	fmt.Println("Ask about P&L, comparisons, or expenses, or use /help for commands.")
	fmt.Println(strings.Repeat("-", 70))

	errExit := fmt.Errorf("exit")
	sessionID := ""

	dispatchSlash := func(input string) error {
		tokens := strings.Fields(strings.TrimPrefix(input, "/"))
		if len(tokens) == 0 {
			return nil
		}
		cmd := strings.ToLower(tokens[0])

		switch cmd {
		case "props", "properties":
			result, err := svc.ListProperties(ctx)
			if err != nil {
				return err
			}
			printProperties(result)

		case "tenants":
			result, err := svc.ListTenants(ctx)
			if err != nil {
				return err
			}
			printTenants(result)

		case "history":
			if sessionID == "" {
				fmt.Println("No conversation yet.")
				return nil
			}
			messages, err := svc.GetHistory(ctx, sessionID)
			if err != nil {
				return err
			}
			printHistory(messages)

		case "reset":
			if sessionID != "" {
				if err := svc.ResetSession(ctx, sessionID); err != nil {
					return err
				}
				sessionID = ""
			}
			fmt.Println("Conversation reset.")

		case "help", "h":
			printHelp()

		case "exit", "quit", "e", "q":
			return errExit

		default:
			fmt.Printf("Unknown command: /%s  (type /help for all commands)\n", cmd)
		}
		return nil
	}

	for {
		fmt.Print("\n> ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		// Slash prefix → deterministic command dispatcher, no pipeline run.
		if strings.HasPrefix(input, "/") {
			if err := dispatchSlash(input); err != nil {
				if err == errExit {
					fmt.Println("Goodbye!")
					break
				}
				fmt.Printf("Error: %v\n", err)
			}
			continue
		}

		result, err := svc.Chat(ctx, sessionID, input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		sessionID = result.SessionID
		printTurn(result)
	}
}
