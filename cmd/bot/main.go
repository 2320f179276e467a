package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/Raided-pro/EventManager/internal/bot"
	"github.com/Raided-pro/EventManager/internal/platform"
	"github.com/Raided-pro/EventManager/internal/ratelimit"
	"github.com/Raided-pro/EventManager/internal/storage"
	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const (
	defaultDraftTTLMinutes       = 15
	defaultGuildFailureThreshold = 5
	defaultGuildCooldownMinutes  = 10
	defaultRetryAttempts         = 3
	defaultEventLocation         = "TBA"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get configuration from environment
	discordToken := os.Getenv("DISCORD_TOKEN")
	if discordToken == "" {
		log.Fatal("DISCORD_TOKEN is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "localhost:6379" // default
	}

	redisPassword := os.Getenv("REDIS_PASSWORD")

	checkSchedule := getEnv("EVENT_CHECK_SCHEDULE", bot.DefaultCheckSchedule)
	defaultLocation := getEnv("DEFAULT_EVENT_LOCATION", defaultEventLocation)
	draftTTL := time.Duration(getEnvAsInt("DRAFT_TTL_MINUTES", defaultDraftTTLMinutes)) * time.Minute

	timezone := getEnv("EVENT_TIMEZONE", "UTC")
	location, err := time.LoadLocation(timezone)
	if err != nil {
		log.Fatalf("Invalid EVENT_TIMEZONE %q: %v", timezone, err)
	}

	// Per-guild circuit breaker and retry settings
	breakerConfig := ratelimit.DefaultConfig()
	breakerConfig.CircuitBreakerThreshold = getEnvAsInt("GUILD_FAILURE_THRESHOLD", defaultGuildFailureThreshold)
	breakerConfig.CircuitBreakerTimeout = time.Duration(getEnvAsInt("GUILD_COOLDOWN_MINUTES", defaultGuildCooldownMinutes)) * time.Minute
	breakerConfig.RetryAttempts = getEnvAsInt("PLATFORM_RETRY_ATTEMPTS", defaultRetryAttempts)

	log.Printf("Starting Event Manager (Schedule: %q, Timezone: %s, Draft TTL: %v)", checkSchedule, location, draftTTL)
	log.Printf("Guild Circuit Breaker: %d failures, %v cooldown, %d retries",
		breakerConfig.CircuitBreakerThreshold,
		breakerConfig.CircuitBreakerTimeout,
		breakerConfig.RetryAttempts)

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: redisPassword,
		DB:       0,
	})

	// Test Redis connection
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis successfully")

	// Initialize storage repositories
	guildRepo := storage.NewRedisGuildRepository(redisClient)
	draftRepo := storage.NewRedisDraftRepository(redisClient, draftTTL)

	// Create Discord session
	dg, err := discordgo.New("Bot " + discordToken)
	if err != nil {
		log.Fatalf("Failed to create Discord session: %v", err)
	}

	// Set intents
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildScheduledEvents

	breaker := ratelimit.NewManager(breakerConfig)
	eventPlatform := platform.NewDiscord(dg, platform.Config{
		RetryAttempts: breakerConfig.RetryAttempts,
		Backoff:       breaker.CalculateBackoff,
	})

	commandHandler := bot.NewCommandHandler(eventPlatform, guildRepo, draftRepo, bot.HandlerConfig{
		Location:        location,
		DefaultLocation: defaultLocation,
	})

	monitor := bot.NewEventMonitor(eventPlatform, guildRepo, breaker, bot.MonitorConfig{
		Schedule: checkSchedule,
	})
	commandHandler.SetEventMonitor(monitor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		startOnce sync.Once
		wg        sync.WaitGroup
	)

	// Register commands and start the monitor once the gateway is ready.
	// Ready fires again on reconnect.
	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
		log.Printf("Bot ID: %v", s.State.User.ID)

		// Register slash commands
		if err := commandHandler.RegisterCommands(s); err != nil {
			log.Printf("Error registering commands: %v", err)
		}

		startOnce.Do(func() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := monitor.Start(ctx); err != nil {
					log.Printf("[EVENT-MONITOR] ERROR: %v", err)
					cancel()
				}
			}()
		})
	})

	// Handle commands
	commandHandler.HandleCommands(dg)

	// Open Discord connection
	if err := dg.Open(); err != nil {
		log.Fatalf("Failed to open Discord connection: %v", err)
	}
	defer dg.Close()

	log.Println("Bot is now running. Press CTRL+C to exit.")

	// Wait for interrupt signal or a fatal monitor error
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	select {
	case <-sc:
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	cancel()
	wg.Wait()

	// Close Redis connection
	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis connection: %v", err)
	}
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvAsInt retrieves an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Warning: Invalid value for %s, using default: %d", key, defaultVal)
		return defaultVal
	}

	return val
}
