// Package api is the HTTP client for the Cadence catalog service: artists,
// records, songs, playlists, search, likes/follows, and the presigned upload
// flow for audio and cover files. Auth is bearer-token with a single refresh
// flow; everything else is stable JSON over HTTPS.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cadence-music/cadence/internal/logger"
	"github.com/cadence-music/cadence/internal/structures"
)

// refreshLeeway is how close to expiry the access token may get before it is
// refreshed ahead of a request instead of waiting for a 401.
const refreshLeeway = time.Minute

// Client talks to the Cadence REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewClient creates a client for the API at baseURL with an existing token
// pair. Tokens may be empty for endpoints that allow anonymous access.
func NewClient(baseURL, accessToken, refreshToken string) *Client {
	return &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

// Login exchanges credentials for a token pair and stores it on the client.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var tokens tokenPair
	body := map[string]string{"email": email, "password": password}
	if err := c.doOnce(ctx, http.MethodPost, "/auth/login", "", body, &tokens); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	c.mu.Lock()
	c.accessToken = tokens.AccessToken
	c.refreshToken = tokens.RefreshToken
	c.mu.Unlock()
	return nil
}

// refresh trades the refresh token for a new pair. Called under c.mu.
func (c *Client) refreshLocked(ctx context.Context) error {
	if c.refreshToken == "" {
		return fmt.Errorf("no refresh token")
	}
	var tokens tokenPair
	body := map[string]string{"refreshToken": c.refreshToken}
	if err := c.doOnce(ctx, http.MethodPost, "/auth/refresh", "", body, &tokens); err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	c.accessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		c.refreshToken = tokens.RefreshToken
	}
	logger.Debug("Access token refreshed")
	return nil
}

// token returns a bearer token to use, refreshing first when the current one
// is about to expire.
func (c *Client) token(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && tokenExpiringSoon(c.accessToken) {
		if err := c.refreshLocked(ctx); err != nil {
			logger.Warn("Proactive token refresh failed: %v", err)
		}
	}
	return c.accessToken
}

// tokenExpiringSoon inspects the JWT's exp claim without verifying the
// signature; the server remains the authority, this only avoids a known-dead
// token roundtrip.
func tokenExpiringSoon(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < refreshLeeway
}

// do performs an authenticated JSON request, refreshing the token and
// retrying once on 401.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	err := c.doOnce(ctx, method, path, c.token(ctx), body, out)
	if err == nil {
		return nil
	}
	var status *statusError
	if !errors.As(err, &status) || status.Code != http.StatusUnauthorized {
		return err
	}

	c.mu.Lock()
	refreshErr := c.refreshLocked(ctx)
	token := c.accessToken
	c.mu.Unlock()
	if refreshErr != nil {
		return fmt.Errorf("%s %s: %w (and %v)", method, path, err, refreshErr)
	}
	return c.doOnce(ctx, method, path, token, body, out)
}

type statusError struct {
	Code   int
	Status string
	Body   string
}

func (e *statusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("unexpected status %s", e.Status)
}

func (c *Client) doOnce(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{Code: resp.StatusCode, Status: resp.Status, Body: string(bytes.TrimSpace(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// --- Catalog ---

// GetArtist fetches an artist page with their records and top songs.
func (c *Client) GetArtist(ctx context.Context, id string) (*structures.ArtistPage, error) {
	var dto artistPageDTO
	if err := c.do(ctx, http.MethodGet, "/artists/"+url.PathEscape(id), nil, &dto); err != nil {
		return nil, err
	}
	return &structures.ArtistPage{
		Artist:    dto.toArtist(),
		Bio:       dto.Bio,
		AvatarURL: dto.AvatarURL,
		Records:   toRecords(dto.Records),
		TopTracks: toTracks(dto.TopSongs),
	}, nil
}

// ListArtists fetches the artist index.
func (c *Client) ListArtists(ctx context.Context) ([]structures.Artist, error) {
	var dtos []artistDTO
	if err := c.do(ctx, http.MethodGet, "/artists", nil, &dtos); err != nil {
		return nil, err
	}
	return toArtists(dtos), nil
}

// GetRecord fetches a record with its track list.
func (c *Client) GetRecord(ctx context.Context, id string) (*structures.Record, error) {
	var dto recordDTO
	if err := c.do(ctx, http.MethodGet, "/records/"+url.PathEscape(id), nil, &dto); err != nil {
		return nil, err
	}
	record := dto.toRecord()
	return &record, nil
}

// GetSong fetches a single song.
func (c *Client) GetSong(ctx context.Context, id string) (*structures.Track, error) {
	var dto songDTO
	if err := c.do(ctx, http.MethodGet, "/songs/"+url.PathEscape(id), nil, &dto); err != nil {
		return nil, err
	}
	track := dto.toTrack()
	return &track, nil
}

// PopularSongs fetches the service-wide popular songs feed.
func (c *Client) PopularSongs(ctx context.Context) ([]structures.Track, error) {
	var dtos []songDTO
	if err := c.do(ctx, http.MethodGet, "/songs/popular", nil, &dtos); err != nil {
		return nil, err
	}
	return toTracks(dtos), nil
}

// Search queries artists, records, songs, and playlists at once.
func (c *Client) Search(ctx context.Context, query string) (*structures.SearchResults, error) {
	var dto searchDTO
	path := "/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &dto); err != nil {
		return nil, err
	}
	results := &structures.SearchResults{
		Artists: toArtists(dto.Artists),
		Records: toRecords(dto.Records),
		Tracks:  toTracks(dto.Songs),
	}
	for _, p := range dto.Playlists {
		results.Playlists = append(results.Playlists, p.toPlaylist())
	}
	return results, nil
}

// --- Playlists ---

// ListPlaylists fetches the signed-in user's playlists.
func (c *Client) ListPlaylists(ctx context.Context) ([]structures.Playlist, error) {
	var dtos []playlistDTO
	if err := c.do(ctx, http.MethodGet, "/playlists", nil, &dtos); err != nil {
		return nil, err
	}
	playlists := make([]structures.Playlist, len(dtos))
	for i, p := range dtos {
		playlists[i] = p.toPlaylist()
	}
	return playlists, nil
}

// GetPlaylist fetches a playlist with its tracks.
func (c *Client) GetPlaylist(ctx context.Context, id string) (*structures.Playlist, error) {
	var dto playlistDTO
	if err := c.do(ctx, http.MethodGet, "/playlists/"+url.PathEscape(id), nil, &dto); err != nil {
		return nil, err
	}
	playlist := dto.toPlaylist()
	return &playlist, nil
}

// CreatePlaylist creates a playlist and returns it.
func (c *Client) CreatePlaylist(ctx context.Context, title, description string) (*structures.Playlist, error) {
	var dto playlistDTO
	body := map[string]string{"title": title, "description": description}
	if err := c.do(ctx, http.MethodPost, "/playlists", body, &dto); err != nil {
		return nil, err
	}
	playlist := dto.toPlaylist()
	return &playlist, nil
}

// AddSongToPlaylist appends a song to a playlist.
func (c *Client) AddSongToPlaylist(ctx context.Context, playlistID, songID string) error {
	path := "/playlists/" + url.PathEscape(playlistID) + "/songs"
	return c.do(ctx, http.MethodPost, path, map[string]string{"songId": songID}, nil)
}

// RemoveSongFromPlaylist removes a song from a playlist.
func (c *Client) RemoveSongFromPlaylist(ctx context.Context, playlistID, songID string) error {
	path := "/playlists/" + url.PathEscape(playlistID) + "/songs/" + url.PathEscape(songID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// --- Likes and follows ---

// LikeSong marks a song as liked.
func (c *Client) LikeSong(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/songs/"+url.PathEscape(id)+"/like", nil, nil)
}

// UnlikeSong removes a like.
func (c *Client) UnlikeSong(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/songs/"+url.PathEscape(id)+"/like", nil, nil)
}

// LikedSongs fetches the signed-in user's liked songs.
func (c *Client) LikedSongs(ctx context.Context) ([]structures.Track, error) {
	var dtos []songDTO
	if err := c.do(ctx, http.MethodGet, "/me/likes", nil, &dtos); err != nil {
		return nil, err
	}
	return toTracks(dtos), nil
}

// FollowArtist follows an artist.
func (c *Client) FollowArtist(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/artists/"+url.PathEscape(id)+"/follow", nil, nil)
}

// UnfollowArtist unfollows an artist.
func (c *Client) UnfollowArtist(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/artists/"+url.PathEscape(id)+"/follow", nil, nil)
}

// --- Uploads ---

// RequestUpload asks the API for a presigned URL to upload a file to object
// storage. The returned FileURL is what gets stored on the catalog entity.
func (c *Client) RequestUpload(ctx context.Context, filename, contentType string) (uploadURL, fileURL string, err error) {
	var dto presignDTO
	body := map[string]string{"filename": filename, "contentType": contentType}
	if err := c.do(ctx, http.MethodPost, "/uploads", body, &dto); err != nil {
		return "", "", err
	}
	return dto.UploadURL, dto.FileURL, nil
}

// UploadFile PUTs the file bytes to a presigned URL.
func (c *Client) UploadFile(ctx context.Context, uploadURL, contentType string, r io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	if size > 0 {
		req.ContentLength = size
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload file: unexpected status %s", resp.Status)
	}
	return nil
}
