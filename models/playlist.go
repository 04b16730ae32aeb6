package models

import (
	"time"

	"github.com/google/uuid"
)

// Playlist represents a row in the playlists table. A playlist belongs to
// exactly one user and is only ever visible to its owner.
type Playlist struct {
	ID        uuid.UUID `json:"id"`
	UserID    int       `json:"user_id"`
	Name      string    `json:"name"`
	Cover     *string   `json:"cover"`
	CreatedAt time.Time `json:"created_at"`
	SongCount int       `json:"song_count"`
}

// PlaylistSong represents a row in the playlist_songs table. Song metadata is
// denormalized from the upstream catalog at the time the song is added.
// (playlist_id, song_id) is unique; re-adding the same song is a no-op.
type PlaylistSong struct {
	ID         int       `json:"id"`
	PlaylistID uuid.UUID `json:"playlist_id"`
	SongID     string    `json:"song_id"`
	SongName   string    `json:"song_name"`
	Artist     string    `json:"artist"`
	Album      string    `json:"album"`
	Cover      *string   `json:"cover"`
	AddedAt    time.Time `json:"added_at"`
}
