package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"worshipsongs/internal/app/setlists"
	"worshipsongs/internal/app/songs"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add demo songs and a setlist to an empty library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		store, closeStore, err := openBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		return bootstrapDemoData(cmd.Context(), store)
	},
}

type seedSong struct {
	Title         string
	Artist        string
	Key           string
	Tempo         string
	TimeSignature string
	Content       string
}

var demoSongs = []seedSong{
	{
		Title: "Amazing Grace", Artist: "John Newton", Key: "G", Tempo: "72", TimeSignature: "3/4",
		Content: "[G]Amazing grace how [C]sweet the [G]sound\nThat saved a wretch like [D]me",
	},
	{
		Title: "Holy, Holy, Holy", Artist: "Reginald Heber", Key: "D", Tempo: "84", TimeSignature: "4/4",
		Content: "[D]Holy, holy, [Bm]holy! [G]Lord God Al[D]mighty",
	},
	{
		Title: "It Is Well with My Soul", Artist: "Horatio Spafford", Key: "C", Tempo: "76", TimeSignature: "4/4",
		Content: "[C]When peace like a [F]river at[C]tendeth my way",
	},
	{
		Title: "Be Thou My Vision", Artist: "Traditional Irish", Key: "Eb", Tempo: "92", TimeSignature: "3/4",
		Content: "[Eb]Be Thou my [Ab]vision, O [Eb]Lord of my heart",
	},
	{
		Title: "Come Thou Fount", Artist: "Robert Robinson", Key: "D", Tempo: "96", TimeSignature: "3/4",
		Content: "[D]Come Thou fount of [G]every [D]blessing",
	},
}

// bootstrapDemoData fills an empty library through the same forms the API uses.
func bootstrapDemoData(ctx context.Context, store backend) error {
	existing, err := store.ListSongs(ctx)
	if err != nil {
		return fmt.Errorf("check existing songs: %w", err)
	}
	if len(existing) > 0 {
		log.Info().Int("songs", len(existing)).Msg("library not empty, skipping demo data")
		return nil
	}

	for _, demo := range demoSongs {
		form := songs.NewAddForm(store)
		form.Fields = songs.Fields{
			Title:          demo.Title,
			Artist:         demo.Artist,
			Key:            demo.Key,
			Tempo:          demo.Tempo,
			TimeSignature:  demo.TimeSignature,
			Content:        demo.Content,
			IsPublicDomain: true,
		}
		if _, err := form.Save(ctx); err != nil {
			return fmt.Errorf("seed song %q: %w", demo.Title, err)
		}
	}

	date := nextSunday(time.Now())
	setlist, err := setlists.NewList(store).Create(ctx, "Sunday Morning", &date, "")
	if err != nil {
		return fmt.Errorf("seed setlist: %w", err)
	}

	picker := setlists.NewPicker(store, setlist.ID)
	if err := picker.Load(ctx); err != nil {
		return fmt.Errorf("seed setlist songs: %w", err)
	}
	for _, song := range picker.Visible()[:3] {
		picker.Toggle(song.ID)
	}
	added, err := picker.Save(ctx)
	if err != nil {
		return fmt.Errorf("seed setlist songs: %w", err)
	}

	log.Info().Int("songs", len(demoSongs)).Int("setlist_songs", added).Msg("demo data added")
	return nil
}

func nextSunday(from time.Time) time.Time {
	days := (7 - int(from.Weekday())) % 7
	if days == 0 {
		days = 7
	}
	return from.AddDate(0, 0, days)
}
