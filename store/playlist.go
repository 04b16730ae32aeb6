package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/etsusei/NeteaseCloudMusicApi2/models"
)

// PlaylistStore provides owner-scoped CRUD over playlists and their entries,
// plus the transactional bulk import.
type PlaylistStore struct {
	db DB
}

// NewPlaylistStore creates a PlaylistStore on the given database handle.
func NewPlaylistStore(db DB) *PlaylistStore {
	return &PlaylistStore{db: db}
}

// ListByOwner returns the owner's playlists, newest first, each with its
// entry count.
func (s *PlaylistStore) ListByOwner(ctx context.Context, ownerID int) ([]models.Playlist, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.user_id, p.name, p.cover, p.created_at, COUNT(ps.id) AS song_count
		FROM playlists p
		LEFT JOIN playlist_songs ps ON p.id = ps.playlist_id
		WHERE p.user_id = $1
		GROUP BY p.id
		ORDER BY p.created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Cover, &p.CreatedAt, &p.SongCount); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return playlists, nil
}

// Create inserts a new playlist for the owner and returns the stored row.
func (s *PlaylistStore) Create(ctx context.Context, ownerID int, name string, cover *string) (*models.Playlist, error) {
	p := models.Playlist{ID: uuid.New(), UserID: ownerID, Name: name, Cover: cover}
	err := s.db.QueryRow(ctx,
		`INSERT INTO playlists (id, user_id, name, cover) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		p.ID, p.UserID, p.Name, p.Cover,
	).Scan(&p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert playlist: %w", err)
	}
	return &p, nil
}

// Delete removes the owner's playlist. Entries go with it via the cascade.
// Deleting someone else's playlist reports ErrNotFound, not a permission error.
func (s *PlaylistStore) Delete(ctx context.Context, ownerID int, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM playlists WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Songs returns the entries of the owner's playlist, newest first.
func (s *PlaylistStore) Songs(ctx context.Context, ownerID int, playlistID uuid.UUID) ([]models.PlaylistSong, error) {
	if err := s.checkOwner(ctx, s.db, ownerID, playlistID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, playlist_id, song_id, song_name, artist, album, cover, added_at
		FROM playlist_songs WHERE playlist_id = $1 ORDER BY added_at DESC`,
		playlistID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist songs: %w", err)
	}
	defer rows.Close()

	var songs []models.PlaylistSong
	for rows.Next() {
		var song models.PlaylistSong
		if err := rows.Scan(&song.ID, &song.PlaylistID, &song.SongID, &song.SongName,
			&song.Artist, &song.Album, &song.Cover, &song.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return songs, nil
}

// AddSong inserts an entry into the owner's playlist. Re-adding an existing
// (playlist, song) pair is a silent no-op. When the playlist has no cover yet,
// the song's cover is promoted to playlist cover, best effort.
func (s *PlaylistStore) AddSong(ctx context.Context, ownerID int, playlistID uuid.UUID, song models.ExportSong) error {
	var currentCover *string
	err := s.db.QueryRow(ctx,
		`SELECT cover FROM playlists WHERE id = $1 AND user_id = $2`,
		playlistID, ownerID,
	).Scan(&currentCover)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query playlist: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO playlist_songs (playlist_id, song_id, song_name, artist, album, cover)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (playlist_id, song_id) DO NOTHING`,
		playlistID, song.SongID, song.SongName, song.Artist, song.Album, song.Cover,
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist song: %w", err)
	}

	if currentCover == nil && song.Cover != nil {
		// Best effort: the song row is already stored, and a missed
		// promotion self-heals on the next add.
		_, _ = s.db.Exec(ctx,
			`UPDATE playlists SET cover = $1 WHERE id = $2`, song.Cover, playlistID)
	}
	return nil
}

// RemoveSong deletes an entry from the owner's playlist.
func (s *PlaylistStore) RemoveSong(ctx context.Context, ownerID int, playlistID uuid.UUID, songID string) error {
	if err := s.checkOwner(ctx, s.db, ownerID, playlistID); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx,
		`DELETE FROM playlist_songs WHERE playlist_id = $1 AND song_id = $2`,
		playlistID, songID); err != nil {
		return fmt.Errorf("failed to delete playlist song: %w", err)
	}
	return nil
}

// ExportAll returns every playlist of the owner with its entries, in the
// portable export shape, ordered by creation time.
func (s *PlaylistStore) ExportAll(ctx context.Context, ownerID int) ([]models.ExportPlaylist, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, cover FROM playlists WHERE user_id = $1 ORDER BY created_at`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	type header struct {
		id    uuid.UUID
		name  string
		cover *string
	}
	var headers []header
	for rows.Next() {
		var h header
		if err := rows.Scan(&h.id, &h.name, &h.cover); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	playlists := make([]models.ExportPlaylist, 0, len(headers))
	for _, h := range headers {
		songRows, err := s.db.Query(ctx, `
			SELECT song_id, song_name, artist, album, cover
			FROM playlist_songs WHERE playlist_id = $1 ORDER BY added_at`,
			h.id,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to query playlist songs: %w", err)
		}

		var songs []models.ExportSong
		for songRows.Next() {
			var song models.ExportSong
			if err := songRows.Scan(&song.SongID, &song.SongName, &song.Artist, &song.Album, &song.Cover); err != nil {
				songRows.Close()
				return nil, fmt.Errorf("failed to scan playlist song: %w", err)
			}
			songs = append(songs, song)
		}
		if err := songRows.Err(); err != nil {
			songRows.Close()
			return nil, fmt.Errorf("row iteration error: %w", err)
		}
		songRows.Close()

		playlists = append(playlists, models.ExportPlaylist{Name: h.name, Cover: h.cover, Songs: songs})
	}
	return playlists, nil
}

// Import creates all given playlists and their entries for the owner inside a
// single transaction. A playlist without a name and a song without an id are
// skipped without aborting; any storage error rolls the whole batch back.
// Returns the number of playlists actually created.
func (s *PlaylistStore) Import(ctx context.Context, ownerID int, playlists []models.ExportPlaylist) (int, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	imported := 0
	for _, p := range playlists {
		if p.Name == "" {
			continue
		}

		playlistID := uuid.New()
		if _, err := tx.Exec(ctx,
			`INSERT INTO playlists (id, user_id, name, cover) VALUES ($1, $2, $3, $4)`,
			playlistID, ownerID, p.Name, p.Cover); err != nil {
			return 0, fmt.Errorf("failed to insert playlist: %w", err)
		}

		for _, song := range p.Songs {
			if song.SongID == "" {
				continue
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO playlist_songs (playlist_id, song_id, song_name, artist, album, cover)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (playlist_id, song_id) DO NOTHING`,
				playlistID, song.SongID, song.SongName, song.Artist, song.Album, song.Cover); err != nil {
				return 0, fmt.Errorf("failed to insert playlist song: %w", err)
			}
		}
		imported++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit import transaction: %w", err)
	}
	return imported, nil
}

// checkOwner verifies the playlist exists and belongs to the owner.
func (s *PlaylistStore) checkOwner(ctx context.Context, q Querier, ownerID int, playlistID uuid.UUID) error {
	var id uuid.UUID
	err := q.QueryRow(ctx,
		`SELECT id FROM playlists WHERE id = $1 AND user_id = $2`,
		playlistID, ownerID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query playlist: %w", err)
	}
	return nil
}
