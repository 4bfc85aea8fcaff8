// Package main provides the assistant entry point.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/ottara/tunebox/internal/app/analytics"
	appdiscovery "github.com/ottara/tunebox/internal/app/discovery"
	"github.com/ottara/tunebox/internal/app/intent"
	"github.com/ottara/tunebox/internal/app/planner"
	"github.com/ottara/tunebox/internal/infra/config"
	"github.com/ottara/tunebox/internal/infra/eventstore"
	"github.com/ottara/tunebox/internal/infra/lastfm"
	"github.com/ottara/tunebox/internal/infra/logger"
	"github.com/ottara/tunebox/internal/infra/spotify"
)

var (
	app        = kingpin.New("tunebox-assistant", "tunebox listening analytics assistant")
	configPath = app.Flag("config", "Path to config file").Default("config/assistant.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	publish    = app.Flag("publish", "Materialize planned playlists on the streaming account").Bool()

	// list-activities command
	listActivitiesCmd = app.Command("list-activities", "List canonical activity profiles and exit")
)

func init() {
	// start command (default)
	app.Command("start", "Start the assistant loop (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	if command == listActivitiesCmd.FullCommand() {
		printActivities()
		return
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Assistant error: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	store, err := eventstore.New(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	spotifyClient, err := spotify.New(ctx, spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
		Market:       cfg.Spotify.Market,
	})
	if err != nil {
		return err
	}

	var lastfmClient *lastfm.Client
	if cfg.LastFM.APIKey != "" {
		lastfmClient, err = lastfm.New(lastfm.Config{APIKey: cfg.LastFM.APIKey})
		if err != nil {
			return err
		}
	} else {
		zlog.Warn().Msg("last.fm not configured, influence and trend discovery will degrade")
	}

	catalog := &catalogFacade{spotify: spotifyClient, lastfm: lastfmClient}

	overrides, err := activityOverrides(cfg)
	if err != nil {
		return err
	}

	builder := analytics.NewBuilder(store)
	discoveryEngine := appdiscovery.New(catalog)
	activityPlanner := planner.New(catalog, planner.WithActivities(overrides))

	router := intent.NewRouter(intent.Messages{
		Unhandled:           cfg.Messages.Unhandled,
		DefaultError:        cfg.Messages.DefaultError,
		InvalidWindow:       cfg.Messages.InvalidWindow,
		NoSeedData:          cfg.Messages.NoSeedData,
		UnknownActivity:     cfg.Messages.UnknownActivity,
		InsufficientCatalog: cfg.Messages.InsufficientCatalog,
	})
	router.Register(&intent.AnalyzeHandler{
		Builder:           builder,
		DefaultWindowDays: cfg.Analytics.DefaultWindowDays,
	})
	router.Register(&intent.DiscoveryHandler{
		Builder:           builder,
		Engine:            discoveryEngine,
		DefaultWindowDays: cfg.Analytics.DefaultWindowDays,
	})
	router.Register(&intent.ActivityPlaylistHandler{
		Builder:           builder,
		Planner:           activityPlanner,
		DefaultWindowDays: cfg.Analytics.DefaultWindowDays,
		DefaultLength:     cfg.Planner.DefaultLength,
	})

	zlog.Info().Strs("intents", router.Labels()).Msg("assistant ready, reading classified intents from stdin")
	return loop(ctx, router, spotifyClient)
}

// loop reads classified turns from stdin, one per line, in the form
// "LABEL key=value key=value ...". The NLU producing these lines lives
// outside this process.
func loop(ctx context.Context, router *intent.Router, spotifyClient *spotify.Client) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		reply := router.Route(ctx, parseLine(line))
		fmt.Println(reply.Text)
		printDetails(reply)

		if reply.Plan != nil && *publish {
			id, err := spotifyClient.CreatePlaylist(ctx, reply.Plan.Name,
				"Created by tunebox for "+reply.Plan.Activity, reply.Plan.TrackIDs())
			if err != nil {
				zlog.Warn().Err(err).Msg("failed to publish playlist")
			} else {
				fmt.Printf("  published as playlist %s\n", id)
			}
		}
	}
	return scanner.Err()
}

func parseLine(line string) intent.Result {
	fields := strings.Fields(line)
	res := intent.Result{
		Label: strings.ToUpper(fields[0]),
		Slots: make(map[string]string),
	}
	for _, field := range fields[1:] {
		if key, value, ok := strings.Cut(field, "="); ok {
			res.Slots[key] = value
		}
	}
	return res
}

func printDetails(reply intent.Reply) {
	if reply.Profile != nil && reply.Profile.TotalTracksPlayed > 0 {
		p := reply.Profile
		fmt.Printf("  genre diversity %d/100, artist diversity %d/100, peak hour %02d:00\n",
			p.GenreDiversityScore, p.ArtistDiversityScore, p.PeakListeningHour)
		for _, rec := range p.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}
	for _, c := range reply.Candidates {
		fmt.Printf("  [%s] %s (similarity %.2f): %s\n", c.Category, c.Name, c.Similarity, c.Rationale)
	}
	if reply.Plan != nil {
		for i, e := range reply.Plan.Entries {
			fmt.Printf("  %2d. %s (%s, %.0f BPM)\n", i+1, e.TrackName, e.Phase, e.TargetBPM)
		}
	}
}

func activityOverrides(cfg *config.Config) (map[string]planner.Activity, error) {
	overrides := make(map[string]planner.Activity)
	for tag, entry := range cfg.Activities {
		if !entry.Enabled {
			continue
		}
		activity, err := planner.ActivityFromSettings(tag, entry.Settings)
		if err != nil {
			return nil, err
		}
		overrides[tag] = activity
		zlog.Info().Str("activity", tag).Msg("registered activity override")
	}
	return overrides, nil
}

func printActivities() {
	activities := planner.DefaultActivities()
	tags := make([]string, 0, len(activities))
	for tag := range activities {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	fmt.Println("Canonical activity profiles:")
	for _, tag := range tags {
		a := activities[tag]
		fmt.Printf("\n%s (%.0f-%.0f BPM)\n", a.Tag, a.BPMMin, a.BPMMax)
		fmt.Printf("  genres: %s\n", strings.Join(a.Genres, ", "))
		for _, p := range a.Arc {
			fmt.Printf("  %-12s energy %.2f, %2.0f%% of the playlist\n", p.Name, p.Energy, p.Fraction*100)
		}
	}
}
