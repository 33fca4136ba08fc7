// voicedesk is a terminal client for a voicedesk agent session: it dials the
// backend, runs the half-duplex turn coordinator against local audio devices
// and prints session traffic to stdout.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	turntaking "github.com/dkroflic/voicedesk-core/core"
	"github.com/dkroflic/voicedesk-core/core/audio/miniaudio"
	"github.com/dkroflic/voicedesk-core/core/audio/portaudio"
	"github.com/dkroflic/voicedesk-core/core/events"
	"github.com/dkroflic/voicedesk-core/core/transport"
	"github.com/dkroflic/voicedesk-core/internal/config"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	coordinatorOpts, deviceCleanup, err := deviceOptions(cfg)
	if err != nil {
		slog.Error("Failed to open audio devices", "error", err)
		os.Exit(1)
	}
	defer deviceCleanup()

	coordinator := turntaking.NewCoordinator(coordinatorOpts...)

	clientOpts := []transport.ClientOption{
		transport.WithEventSink(func(event events.Event) {
			coordinator.Handle(event)
		}),
	}
	if cfg.SessionID != "" {
		clientOpts = append(clientOpts, transport.WithSessionID(cfg.SessionID))
	}
	client := transport.NewClient(cfg.ServerURL, clientOpts...)

	coordinator.SetRemote(client)
	coordinator.Start(ctx,
		turntaking.WithTurnStateChangedCallback(func(state turntaking.TurnState) {
			fmt.Printf("-- %s\n", state)
		}),
		turntaking.WithCaptureFailureCallback(func(err error) {
			fmt.Printf("-- voice unavailable (%v), continuing in text mode\n", err)
		}),
		turntaking.WithConnectionLostCallback(func(err error) {
			fmt.Printf("-- connection lost: %v\n", err)
			cancel()
		}),
		turntaking.WithSessionStartedCallback(func(sessionID, message string) {
			fmt.Printf("-- session %s started\n", sessionID)
			if message != "" {
				fmt.Printf("agent: %s\n", message)
			}
		}),
		turntaking.WithSessionEndedCallback(func(string) {
			fmt.Println("-- session ended")
			cancel()
		}),
		turntaking.WithTranscriptCallback(func(text, role, agent string) {
			if agent != "" {
				fmt.Printf("%s [%s]: %s\n", role, agent, text)
			} else {
				fmt.Printf("%s: %s\n", role, text)
			}
		}),
		turntaking.WithUserTranscriptCallback(func(text string) {
			fmt.Printf("you: %s\n", text)
		}),
		turntaking.WithToolCallCallback(func(tool, status string) {
			fmt.Printf("-- tool %s %s\n", tool, status)
		}),
		turntaking.WithHandoffCallback(func(fromAgent, toAgent, _ string) {
			fmt.Printf("-- handoff %s -> %s\n", fromAgent, toAgent)
		}),
		turntaking.WithContextUpdatedCallback(func(customer events.CustomerContext) {
			fmt.Printf("-- context: %s\n", describeCustomer(customer))
		}),
		turntaking.WithRemoteErrorCallback(func(errType, message string) {
			fmt.Printf("-- %s error: %s\n", errType, message)
		}),
	)
	defer coordinator.Close()

	if err := client.Dial(ctx); err != nil {
		slog.Error("Failed to connect", "server", cfg.ServerURL, "error", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Printf("connected to %s as %s\n", cfg.ServerURL, client.SessionID())
	fmt.Println("commands: /voice /mute /interrupt /quit; any other line is sent as text")

	go readCommands(ctx, cancel, coordinator)

	<-ctx.Done()
}

// deviceOptions opens the configured audio backend and returns the matching
// coordinator options plus a cleanup for the opened devices.
func deviceOptions(cfg *config.Config) ([]turntaking.CoordinatorOption, func(), error) {
	switch cfg.AudioBackend {
	case config.BackendMiniaudio:
		client, err := miniaudio.NewClient()
		if err != nil {
			return nil, nil, err
		}
		opts := []turntaking.CoordinatorOption{
			turntaking.WithCaptureDevice(client),
			turntaking.WithPlaybackDevice(client),
		}
		return opts, func() { client.Close() }, nil

	case config.BackendPortaudio:
		client, err := portaudio.NewClient(cfg.PortaudioBufferSize)
		if err != nil {
			return nil, nil, err
		}
		opts := []turntaking.CoordinatorOption{
			turntaking.WithCaptureDevice(client),
			turntaking.WithPlaybackDevice(client),
		}
		return opts, func() { client.Close() }, nil

	case config.BackendNone:
		return nil, func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown audio backend %q", cfg.AudioBackend)
}

func readCommands(ctx context.Context, cancel context.CancelFunc, coordinator *turntaking.Coordinator) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "/voice":
			coordinator.StartVoice()
		case "/mute":
			coordinator.StopVoice()
		case "/interrupt":
			coordinator.Interrupt()
		case "/quit":
			if err := coordinator.EndSession(); err != nil {
				slog.Warn("Failed to end session", "error", err)
			}
			cancel()
			return
		default:
			if err := coordinator.SendText(line); err != nil {
				slog.Warn("Failed to send text", "error", err)
			}
		}
	}
}

func describeCustomer(customer events.CustomerContext) string {
	parts := []string{}
	if customer.Name != "" {
		parts = append(parts, customer.Name)
	}
	if customer.Email != "" {
		parts = append(parts, customer.Email)
	}
	if customer.SelectedProduct != "" {
		parts = append(parts, "product "+customer.SelectedProduct)
	}
	if customer.CurrentAgent != "" {
		parts = append(parts, "with "+customer.CurrentAgent)
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, ", ")
}
