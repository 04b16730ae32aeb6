package models

import "time"

// ExportDocument is the portable playlist backup format, version "1.0".
// The same shape is accepted back by the bulk import endpoint.
type ExportDocument struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Username   string           `json:"username"`
	Playlists  []ExportPlaylist `json:"playlists"`
}

// ExportPlaylist is one playlist inside an export document.
type ExportPlaylist struct {
	Name  string       `json:"name"`
	Cover *string      `json:"cover"`
	Songs []ExportSong `json:"songs"`
}

// ExportSong is one entry inside an exported playlist.
type ExportSong struct {
	SongID   string  `json:"song_id"`
	SongName string  `json:"song_name"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	Cover    *string `json:"cover"`
}
