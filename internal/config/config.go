// Package config carries the two configuration layers: process settings
// from the environment, and the moderator-controlled document hosted on
// the community's wiki.
package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/gridironmods/sideline/pkg/convert"
)

// WikiPage is the wiki path the moderator configuration document lives at.
const WikiPage = "sideline"

// Config is the moderator-controlled feature flags and thresholds.
type Config struct {
	EnableAutomaticSidebarScores bool
	EnableAutomaticDownvotes     bool
	DownvotesDelay               time.Duration
	Rule7Threshold               int
}

// WikiReader reads one wiki page's markdown body.
type WikiReader interface {
	WikiPage(ctx context.Context, community, page string) (string, error)
}

// Load fetches the configuration document from the community wiki and
// parses it.
func Load(ctx context.Context, wiki WikiReader, community string) (Config, error) {
	doc, err := wiki.WikiPage(ctx, community, WikiPage)
	if err != nil {
		return Config{}, fmt.Errorf("fetching config document: %w", err)
	}
	return Parse(doc)
}

// Parse reads a YAML configuration document. Missing keys fall back to the
// documented defaults; values may be written loosely ("yes", "75", 24).
func Parse(doc string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("enable_automatic_sidebar_scores", false)
	v.SetDefault("enable_automatic_downvotes", false)
	v.SetDefault("delay_downvotes", "-24hr")
	v.SetDefault("rule7_levenshtein_threshold", 75)

	if err := v.ReadConfig(bytes.NewBufferString(doc)); err != nil {
		return Config{}, fmt.Errorf("parsing config document: %w", err)
	}

	delay, err := convert.ToDuration(v.Get("delay_downvotes"))
	if err != nil {
		return Config{}, fmt.Errorf("parsing delay_downvotes: %w", err)
	}

	return Config{
		EnableAutomaticSidebarScores: convert.ToBool(v.Get("enable_automatic_sidebar_scores")),
		EnableAutomaticDownvotes:     convert.ToBool(v.Get("enable_automatic_downvotes")),
		DownvotesDelay:               delay,
		Rule7Threshold:               convert.ToInt(v.Get("rule7_levenshtein_threshold")),
	}, nil
}

// Env is process configuration loaded from environment variables.
type Env struct {
	Community string
	TeamAbbr  string
	AssetsDir string

	PlatformBaseURL      string
	PlatformTokenURL     string
	PlatformClientID     string
	PlatformClientSecret string
	PlatformUsername     string
	PlatformPassword     string
	UserAgent            string

	StatsBaseURL   string
	WeatherBaseURL string
	SocialEmbedURL string

	ChatBaseURL string
	ChatBotID   string
	ChatToken   string

	GatewayURL     string
	GatewayRestURL string
	GatewayToken   string

	HTTPAddr        string
	JobInterval     time.Duration
	HTTPTimeout     time.Duration
	SubmissionLimit int
}

// FromEnv builds an Env, applying defaults for everything optional.
func FromEnv() Env {
	return Env{
		Community: getEnv("COMMUNITY_NAME", "Browns"),
		TeamAbbr:  getEnv("TEAM_ABBR", "CLE"),
		AssetsDir: getEnv("ASSETS_DIR", "assets"),

		PlatformBaseURL:      getEnv("PLATFORM_BASE_URL", "https://oauth.reddit.com"),
		PlatformTokenURL:     getEnv("PLATFORM_TOKEN_URL", "https://www.reddit.com/api/v1/access_token"),
		PlatformClientID:     getEnv("PLATFORM_CLIENT_ID", ""),
		PlatformClientSecret: getEnv("PLATFORM_CLIENT_SECRET", ""),
		PlatformUsername:     getEnv("PLATFORM_USERNAME", ""),
		PlatformPassword:     getEnv("PLATFORM_PASSWORD", ""),
		UserAgent:            getEnv("USER_AGENT", "sideline-mod-assistant/1.0"),

		StatsBaseURL:   getEnv("STATS_BASE_URL", "https://api.nfl.com"),
		WeatherBaseURL: getEnv("WEATHER_BASE_URL", "https://api.weather.gov"),
		SocialEmbedURL: getEnv("SOCIAL_EMBED_URL", "https://publish.twitter.com/oembed"),

		ChatBaseURL: getEnv("CHAT_BASE_URL", "https://api-reddit.sendbird.com"),
		ChatBotID:   getEnv("CHAT_BOT_ID", ""),
		ChatToken:   getEnv("CHAT_API_TOKEN", ""),

		GatewayURL:     getEnv("GATEWAY_URL", "wss://gateway.discord.gg/?v=10&encoding=json"),
		GatewayRestURL: getEnv("GATEWAY_REST_URL", "https://discord.com/api/v10"),
		GatewayToken:   getEnv("GATEWAY_TOKEN", ""),

		HTTPAddr:        getEnv("HTTP_ADDR", ":8001"),
		JobInterval:     getEnvDuration("JOB_INTERVAL", 300*time.Second),
		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		SubmissionLimit: getEnvInt("SUBMISSION_LIMIT", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
