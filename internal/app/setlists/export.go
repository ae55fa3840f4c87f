package setlists

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"worshipsongs/internal/models"
)

// Sheet is the printable running order of a setlist.
type Sheet struct {
	Name  string      `yaml:"name"`
	Date  string      `yaml:"date,omitempty"`
	Notes string      `yaml:"notes,omitempty"`
	Songs []SheetSong `yaml:"songs"`
}

// SheetSong is one line of a Sheet. Number starts at 1.
type SheetSong struct {
	Number        int    `yaml:"number"`
	Title         string `yaml:"title"`
	Artist        string `yaml:"artist,omitempty"`
	Key           string `yaml:"key"`
	Tempo         int16  `yaml:"tempo,omitempty"`
	TimeSignature string `yaml:"time_signature,omitempty"`
	Copyright     string `yaml:"copyright,omitempty"`
	PublicDomain  bool   `yaml:"public_domain,omitempty"`
}

// Sheet builds the running order from the loaded items.
func (d *Detail) Sheet() Sheet {
	var sheet Sheet
	if d.setlist != nil {
		sheet.Name = d.setlist.Name
		sheet.Notes = models.StringValue(d.setlist.Notes)
		if d.setlist.Date != nil {
			sheet.Date = d.setlist.Date.Format("2006-01-02")
		}
	}
	sheet.Songs = make([]SheetSong, 0, len(d.items))
	for i, item := range d.items {
		line := SheetSong{Number: i + 1}
		if song := item.Song; song != nil {
			line.Title = song.Title
			line.Artist = song.ArtistName()
			line.Key = song.Key
			line.Tempo = song.Tempo
			line.TimeSignature = song.TimeSignature
			line.Copyright = models.StringValue(song.Copyright)
			line.PublicDomain = song.IsPublicDomain
		}
		sheet.Songs = append(sheet.Songs, line)
	}
	return sheet
}

// EncodeSheet writes sheet as YAML.
func EncodeSheet(w io.Writer, sheet Sheet) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(sheet); err != nil {
		return fmt.Errorf("encode setlist sheet: %w", err)
	}
	return enc.Close()
}
