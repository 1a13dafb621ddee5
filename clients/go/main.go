// ShelfTalk CLI - Command line client for the ShelfTalk chat API
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shelftalk/shelftalk/clients/go/shelftalk"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("SHELFTALK_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	sessionID := os.Getenv("SHELFTALK_SESSION")
	if sessionID == "" {
		sessionID = fmt.Sprintf("cli-%d", os.Getpid())
	}

	client := shelftalk.NewClient(baseURL, sessionID)
	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health()
		exitOnError(err)
		printJSON(resp)

	case "demo-status":
		resp, err := client.DemoStatus()
		exitOnError(err)
		fmt.Printf("Mode: %s\n%s\n", resp.Mode, resp.Message)
		for _, q := range resp.AvailableQuestions {
			fmt.Printf("  - %s\n", q)
		}

	case "ask":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: shelftalk ask <message>")
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		msg, err := client.Ask(ctx, os.Args[2])
		exitOnError(err)
		if msg.Status == "error" {
			fmt.Fprintln(os.Stderr, "Assistant error:", msg.Content)
			os.Exit(1)
		}
		fmt.Println(msg.Content)

	case "send":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: shelftalk send <message>")
			os.Exit(1)
		}
		resp, err := client.Send(os.Args[2])
		exitOnError(err)
		fmt.Printf("Accepted: %s\n", resp.MessageID)

	case "history":
		resp, err := client.History(50)
		exitOnError(err)
		for _, msg := range resp.Messages {
			ts := msg.Timestamp.Format("2006-01-02 15:04:05")
			fmt.Printf("[%s] %s: %s\n", ts, msg.Role, msg.Content)
		}

	case "watch":
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		fmt.Printf("Watching session %s (Ctrl-C to stop)\n", sessionID)
		err := client.Stream(ctx, func(msg shelftalk.Message) {
			ts := msg.Timestamp.Format("15:04:05")
			fmt.Printf("[%s] %s (%s): %s\n", ts, msg.Role, msg.Status, msg.Content)
		})
		exitOnError(err)

	case "clear":
		exitOnError(client.Clear())
		fmt.Println("History cleared")

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`ShelfTalk CLI - Book catalog chat client

Usage: shelftalk <command> [options]

Commands:
  ask <message>     Send a message and wait for the reply
  send <message>    Send a message without waiting
  watch             Follow the session's live stream
  history           Show recent messages
  clear             Clear the session's history
  demo-status       Show mode and supported demo questions
  health            Check server health

Environment:
  SHELFTALK_URL       Server URL (default: http://localhost:8080)
  SHELFTALK_SESSION   Session ID (default: cli-<pid>)`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
