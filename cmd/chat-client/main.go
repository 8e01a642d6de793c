// Command chat-client is a terminal front end for the preschool chat
// server. It polls the current conversation and sends typed lines.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/preschool-chat/client"
)

const help = `Commands:
  /room <name>      switch to a room (general, class1..class4, staff-*)
  /dm <id>          open a direct conversation
  /announcements    show announcements
  /admins           list staff you can message
  /quit             exit
Any other line is sent to the current conversation.`

func main() {
	server := flag.String("server", "http://localhost:3000", "chat server base URL")
	id := flag.String("id", "", "your participant id")
	name := flag.String("name", "", "your display name")
	room := flag.String("room", "general", "room to open first")
	interval := flag.Duration("interval", client.DefaultPollInterval, "poll interval")
	verbose := flag.Bool("v", false, "log fetch errors to stderr")
	flag.Parse()

	if *id == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "both -id and -name are required")
		flag.Usage()
		os.Exit(2)
	}

	logOut := io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport := client.NewHTTPTransport(*server, 10*time.Second)
	renderer := client.NewTextRenderer(os.Stdout, true, *id)
	ctrl := client.NewController(transport, renderer, client.Identity{ID: *id, Name: *name},
		client.WithPollInterval(*interval),
		client.WithLogger(logger),
	)

	if *room != "general" {
		if err := ctrl.SwitchRoom(ctx, *room); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}

	go func() {
		if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("poll loop stopped", "error", err)
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleLine(ctx, ctrl, transport, line); quit {
				return
			}
		}
	}
}

func handleLine(ctx context.Context, ctrl *client.Controller, transport client.Transport, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	var err error
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit":
		return true
	case "/help":
		fmt.Println(help)
	case "/room":
		err = ctrl.SwitchRoom(ctx, arg)
	case "/dm":
		err = ctrl.OpenDirect(ctx, arg)
	case "/announcements":
		err = ctrl.OpenAnnouncements(ctx)
	case "/admins":
		var admins []client.Admin
		admins, err = transport.ListAdmins(ctx)
		for _, a := range admins {
			fmt.Printf("  %-10s %s (%s)\n", a.ID, a.Name, a.Title)
		}
	default:
		err = ctrl.Send(ctx, line)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return false
}
