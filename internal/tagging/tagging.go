// Package tagging writes ID3v2 tags into finished audio files.
package tagging

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bogem/id3v2"
)

// Fields are the tag values written for one track. Empty values are skipped.
type Fields struct {
	Title  string
	Artist string
	Album  string
	Year   int
	// Cover is a JPEG image attached as the front cover.
	Cover []byte
}

// ID3Tagger replaces every existing frame of an audio file with Fields.
type ID3Tagger struct{}

// WriteTags clears existing tags of path and writes fields.
func (ID3Tagger) WriteTags(path string, fields Fields) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("tagging: audio path is empty")
	}
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("tagging: open %s: %w", path, err)
	}
	defer tag.Close()

	tag.DeleteAllFrames()
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	if fields.Title != "" {
		tag.SetTitle(fields.Title)
	}
	if fields.Artist != "" {
		tag.SetArtist(fields.Artist)
	}
	if fields.Album != "" {
		tag.SetAlbum(fields.Album)
	}
	if fields.Year > 0 {
		tag.SetYear(fmt.Sprintf("%04d", fields.Year))
	}
	if len(fields.Cover) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     fields.Cover,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("tagging: save %s: %w", path, err)
	}
	return nil
}
