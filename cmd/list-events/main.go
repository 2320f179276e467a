package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Raided-pro/EventManager/internal/events"
	"github.com/Raided-pro/EventManager/internal/platform"
	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

func main() {
	guildID := flag.String("guild", "", "guild ID to list scheduled events for")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	discordToken := os.Getenv("DISCORD_TOKEN")
	if discordToken == "" {
		log.Fatal("DISCORD_TOKEN is required")
	}
	if *guildID == "" {
		log.Fatal("-guild is required")
	}

	// REST only, no gateway connection
	dg, err := discordgo.New("Bot " + discordToken)
	if err != nil {
		log.Fatalf("Failed to create Discord session: %v", err)
	}
	client := platform.NewDiscord(dg, platform.Config{RetryAttempts: 1})

	fmt.Printf("🔍 Listing scheduled events of guild %s...\n\n", *guildID)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	list, err := client.ScheduledEvents(ctx, *guildID)
	if err != nil {
		log.Fatalf("Error listing events: %v", err)
	}

	if len(list) == 0 {
		fmt.Println("❌ No events found")
		return
	}

	now := time.Now()
	managed := 0
	fmt.Printf("✅ Found %d event(s):\n", len(list))
	for i, ev := range list {
		params := events.Decode(ev.Description)
		fmt.Printf("%d. %s [%s, %s]\n", i+1, ev.Name, ev.Status, kindLabel(ev))
		fmt.Printf("   Starts: %s (%s)\n", ev.Start.Local().Format(time.RFC1123), humanize.RelTime(ev.Start, now, "ago", "from now"))
		fmt.Printf("   URL: %s\n", platform.EventURL(*guildID, ev.ID))

		if !events.IsManaged(ev.Description) {
			fmt.Println("   Not managed")
			continue
		}
		managed++

		fmt.Printf("   Repeat: %s\n", params.Repeat.Label())
		if len(params.Mentions) > 0 {
			fmt.Printf("   Ping: %s in channel %s\n", describeMentions(params.Mentions), params.Channel)
		}
		if len(params.Malformed) > 0 {
			fmt.Printf("   ⚠️ Malformed parameters: %v\n", params.Malformed)
		}

		plan := events.PlanFor(ev, params, now)
		switch {
		case plan.RepeatErr != nil:
			fmt.Printf("   ⚠️ %v\n", plan.RepeatErr)
		case plan.Reschedule:
			fmt.Printf("   Next occurrence due: %s\n", plan.NextStart.Local().Format(time.RFC1123))
		}
		if plan.Start {
			fmt.Println("   Due to start on the next check")
		}
	}

	fmt.Printf("\n📝 %s of %s event(s) managed\n", humanize.Comma(int64(managed)), humanize.Comma(int64(len(list))))
}

func kindLabel(ev events.Event) string {
	switch ev.Kind {
	case events.KindVoice:
		return "voice " + ev.ChannelID
	case events.KindStage:
		return "stage " + ev.ChannelID
	case events.KindExternal:
		if ev.Location != "" {
			return "external: " + ev.Location
		}
		return "external"
	}
	return "unknown"
}

func describeMentions(mentions []events.Mention) string {
	parts := make([]string, len(mentions))
	for i, m := range mentions {
		if m.IsRole() {
			parts[i] = "role " + m.ID()
		} else {
			parts[i] = "user " + m.ID()
		}
	}
	return strings.Join(parts, ", ")
}
