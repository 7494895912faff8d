package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ai-interviewer-be/internal/config"
	"ai-interviewer-be/internal/pkg/logger"
	"ai-interviewer-be/pkg/events"
	pktNats "ai-interviewer-be/pkg/nats"

	"github.com/fatih/color"
)

// Tails interview events from the NATS stream.
func main() {
	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		log.Fatal("NATS_URL is not set")
	}

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL, logger.NewNopLogger())
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	durable := "interview-monitor"
	if len(os.Args) > 1 {
		durable = os.Args[1]
	}

	err = sub.Subscribe(pktNats.Subject("interview.>"), durable, func(ctx context.Context, event events.Event) error {
		printEvent(event)
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	color.Cyan("Watching %s (durable %s). Ctrl+C to stop.", pktNats.Subject("interview.>"), durable)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
}

func printEvent(event events.Event) {
	data := event.Payload()
	header := fmt.Sprintf("[%s] %-26s session=%v round=%v/%v",
		event.Timestamp().Format("15:04:05"), event.EventType(), data["session_id"], data["round"], data["max_rounds"])

	switch event.EventType() {
	case events.InterviewStarted:
		color.Green("%s", header)
		fmt.Printf("    question: %v\n", data["question"])
	case events.InterviewTurnCompleted:
		color.Yellow("%s", header)
		fmt.Printf("    topic=%v correctness=%v depth=%v decision=%v\n",
			data["topic"], data["correctness_score"], data["depth_level"], data["decision"])
		if next, ok := data["next_question"]; ok {
			fmt.Printf("    next: %v\n", next)
		}
	case events.InterviewEnded:
		color.Cyan("%s", header)
		fmt.Printf("    strengths=%s weaknesses=%s\n", list(data["strengths"]), list(data["weaknesses"]))
	default:
		color.White("%s", header)
	}
}

func list(v interface{}) string {
	items, ok := v.([]interface{})
	if !ok || len(items) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprint(item))
	}
	return strings.Join(parts, ",")
}
