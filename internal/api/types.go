package api

import (
	"github.com/cadence-music/cadence/internal/structures"
)

// Wire shapes of the Cadence REST API. Songs arrive with totalDuration and
// songUrl; songUrl may be absent for drafts, which keeps the audio ref empty
// so callers can substitute a local file path for preview.

type artistDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type songDTO struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	TotalDuration int         `json:"totalDuration"`
	CoverURL      string      `json:"coverUrl,omitempty"`
	Artists       []artistDTO `json:"artists"`
	SongURL       string      `json:"songUrl,omitempty"`
}

type recordDTO struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	CoverURL string      `json:"coverUrl,omitempty"`
	Artists  []artistDTO `json:"artists"`
	Songs    []songDTO   `json:"songs,omitempty"`
}

type playlistDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CoverURL    string    `json:"coverUrl,omitempty"`
	SongCount   int       `json:"songCount"`
	Songs       []songDTO `json:"songs,omitempty"`
}

type artistPageDTO struct {
	artistDTO
	Records  []recordDTO `json:"records,omitempty"`
	TopSongs []songDTO   `json:"topSongs,omitempty"`
}

type searchDTO struct {
	Artists   []artistDTO   `json:"artists"`
	Records   []recordDTO   `json:"records"`
	Songs     []songDTO     `json:"songs"`
	Playlists []playlistDTO `json:"playlists"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type presignDTO struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
}

func (a artistDTO) toArtist() structures.Artist {
	return structures.Artist{ID: a.ID, Name: a.Name}
}

func toArtists(dtos []artistDTO) []structures.Artist {
	if len(dtos) == 0 {
		return nil
	}
	artists := make([]structures.Artist, len(dtos))
	for i, a := range dtos {
		artists[i] = a.toArtist()
	}
	return artists
}

func (s songDTO) toTrack() structures.Track {
	return structures.Track{
		ID:       s.ID,
		Title:    s.Title,
		Duration: s.TotalDuration,
		CoverURL: s.CoverURL,
		Artists:  toArtists(s.Artists),
		Audio:    structures.AudioRef{URL: s.SongURL},
	}
}

func toTracks(dtos []songDTO) []structures.Track {
	if len(dtos) == 0 {
		return nil
	}
	tracks := make([]structures.Track, len(dtos))
	for i, s := range dtos {
		tracks[i] = s.toTrack()
	}
	return tracks
}

func (r recordDTO) toRecord() structures.Record {
	return structures.Record{
		ID:       r.ID,
		Title:    r.Title,
		CoverURL: r.CoverURL,
		Artists:  toArtists(r.Artists),
		Tracks:   toTracks(r.Songs),
	}
}

func toRecords(dtos []recordDTO) []structures.Record {
	if len(dtos) == 0 {
		return nil
	}
	records := make([]structures.Record, len(dtos))
	for i, r := range dtos {
		records[i] = r.toRecord()
	}
	return records
}

func (p playlistDTO) toPlaylist() structures.Playlist {
	count := p.SongCount
	if count == 0 {
		count = len(p.Songs)
	}
	return structures.Playlist{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		CoverURL:    p.CoverURL,
		TrackCount:  count,
		Tracks:      toTracks(p.Songs),
	}
}
