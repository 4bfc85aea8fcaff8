// Package main provides the listening-history import CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/ottara/tunebox/internal/domain/event"
	"github.com/ottara/tunebox/internal/infra/eventstore"
	"github.com/ottara/tunebox/internal/infra/logger"
)

var (
	app     = kingpin.New("tunebox-import", "Import a listening-history JSON export into the event store")
	dbPath  = app.Flag("db", "Path to the event store database").Default("./tunebox.db").String()
	verbose = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	file    = app.Arg("file", "Path to the JSON export").Required().String()
)

// record is one entry of the JSON export.
type record struct {
	TrackID    string   `json:"track_id"`
	TrackName  string   `json:"track_name"`
	ArtistID   string   `json:"artist_id"`
	ArtistName string   `json:"artist_name"`
	Genres     []string `json:"genres"`
	PlayedAt   string   `json:"played_at"` // RFC 3339
	Mood       string   `json:"mood"`
	Skipped    bool     `json:"skipped"`
	DurationMS int64    `json:"duration_ms"`
}

func main() {
	_ = godotenv.Load()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	level := "info"
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(logger.Config{Output: "stderr", Level: level}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	if err := run(*dbPath, *file); err != nil {
		zlog.Error().Msgf("Import error: %v", err)
		os.Exit(1)
	}
}

func run(dbPath, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "failed to read export file")
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return errors.Wrap(err, "failed to parse export file")
	}

	events := make([]event.Listening, 0, len(records))
	for i, r := range records {
		playedAt, err := time.Parse(time.RFC3339, r.PlayedAt)
		if err != nil {
			return errors.Wrapf(err, "record %d: bad played_at %q", i, r.PlayedAt)
		}
		events = append(events, event.Listening{
			TrackID:      r.TrackID,
			TrackName:    r.TrackName,
			ArtistID:     r.ArtistID,
			ArtistName:   r.ArtistName,
			Genres:       r.Genres,
			PlayedAt:     playedAt.UTC(),
			Mood:         r.Mood,
			Skipped:      r.Skipped,
			PlayDuration: time.Duration(r.DurationMS) * time.Millisecond,
		})
	}

	store, err := eventstore.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.AppendBatch(context.Background(), events); err != nil {
		return err
	}

	total, err := store.Count(context.Background())
	if err != nil {
		return err
	}

	zlog.Info().Int("imported", len(events)).Int64("total", total).Msg("import complete")
	fmt.Printf("Imported %d events (%d total in store)\n", len(events), total)
	return nil
}
