package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetSong_MapsWireShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/songs/s1" {
			t.Errorf("path = %q, want /songs/s1", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer access-1" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":            "s1",
			"title":         "Night Drive",
			"totalDuration": 245,
			"coverUrl":      "https://cdn.example.com/covers/s1.jpg",
			"artists":       []map[string]string{{"id": "a1", "name": "Midnight Echo"}},
			"songUrl":       "https://cdn.example.com/audio/s1.mp3",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "access-1", "refresh-1")
	track, err := c.GetSong(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}

	if track.ID != "s1" || track.Title != "Night Drive" {
		t.Errorf("track = %+v", track)
	}
	if track.Duration != 245 {
		t.Errorf("Duration = %d, want 245", track.Duration)
	}
	if track.Audio.URL != "https://cdn.example.com/audio/s1.mp3" || track.Audio.IsLocal() {
		t.Errorf("Audio = %+v, want remote URL ref", track.Audio)
	}
	if track.ArtistNames() != "Midnight Echo" {
		t.Errorf("ArtistNames() = %q", track.ArtistNames())
	}
}

func TestGetSong_MissingSongURLStaysEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "draft", "title": "Draft", "totalDuration": 0,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "access-1", "")
	track, err := c.GetSong(context.Background(), "draft")
	if err != nil {
		t.Fatal(err)
	}
	if !track.Audio.IsZero() {
		t.Errorf("Audio = %+v, want empty ref for a draft", track.Audio)
	}
	if track.ArtistNames() != "Unknown Artist" {
		t.Errorf("ArtistNames() = %q, want Unknown Artist fallback", track.ArtistNames())
	}
}

func TestDo_RefreshesOnceOn401(t *testing.T) {
	var refreshes, songCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			refreshes++
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["refreshToken"] != "refresh-1" {
				t.Errorf("refreshToken = %q, want refresh-1", body["refreshToken"])
			}
			json.NewEncoder(w).Encode(map[string]string{
				"accessToken": "access-2", "refreshToken": "refresh-2",
			})
		case "/songs/s1":
			songCalls++
			if r.Header.Get("Authorization") != "Bearer access-2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id": "s1", "title": "Night Drive", "totalDuration": 245,
			})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "stale-access", "refresh-1")
	track, err := c.GetSong(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if track.Title != "Night Drive" {
		t.Errorf("Title = %q", track.Title)
	}
	if refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", refreshes)
	}
	if songCalls != 2 {
		t.Errorf("song endpoint calls = %d, want 2 (401 then retry)", songCalls)
	}
}

func TestDo_NoRetryOnOtherErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "record not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "access-1", "refresh-1")
	if _, err := c.GetRecord(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for 404")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 404)", calls)
	}
}

func TestSearch_EscapesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "night & day" {
			t.Errorf("q = %q, want %q", got, "night & day")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"songs": []map[string]interface{}{{"id": "s1", "title": "Night & Day", "totalDuration": 100}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "")
	results, err := c.Search(context.Background(), "night & day")
	if err != nil {
		t.Fatal(err)
	}
	if len(results.Tracks) != 1 || results.Tracks[0].ID != "s1" {
		t.Errorf("results = %+v", results)
	}
}
