package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rdelgatto/spindle/internal/shared"
)

func newTestLastFM(t *testing.T, handler http.Handler) *LastFMService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc := NewLastFMService("key", "secret", srv.Client(), nil)
	svc.baseURL = srv.URL
	return svc
}

func TestLastFMConfigured(t *testing.T) {
	cases := []struct {
		name   string
		key    string
		secret string
		want   bool
	}{
		{"both present", "k", "s", true},
		{"missing key", "", "s", false},
		{"missing secret", "k", "", false},
		{"both missing", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewLastFMService(tc.key, tc.secret, nil, nil)
			if got := svc.Configured(); got != tc.want {
				t.Errorf("Configured() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSimilarArtists(t *testing.T) {
	t.Run("parses ranked results", func(t *testing.T) {
		svc := newTestLastFM(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("method") != "artist.getsimilar" {
				t.Errorf("unexpected method param %q", q.Get("method"))
			}
			if q.Get("artist") != "Radiohead" {
				t.Errorf("unexpected artist param %q", q.Get("artist"))
			}
			if q.Get("autocorrect") != "1" {
				t.Errorf("autocorrect should be enabled")
			}
			json.NewEncoder(w).Encode(map[string]any{
				"similarartists": map[string]any{
					"artist": []map[string]any{
						{
							"name":  "Thom Yorke",
							"mbid":  "mbid-1",
							"match": "0.95",
							"url":   "https://www.last.fm/music/Thom+Yorke",
							"image": []map[string]string{{"#text": "https://img/ty.jpg", "size": "large"}},
						},
						{"name": "Portishead", "match": "0.71", "url": "https://www.last.fm/music/Portishead"},
					},
				},
			})
		}))

		artists, err := svc.SimilarArtists(context.Background(), "Radiohead", 5)
		if err != nil {
			t.Fatalf("SimilarArtists failed: %v", err)
		}
		if len(artists) != 2 {
			t.Fatalf("expected 2 artists, got %d", len(artists))
		}
		if artists[0].Name != "Thom Yorke" || artists[0].Match != 0.95 {
			t.Errorf("unexpected first artist %+v", artists[0])
		}
		if len(artists[0].Images) != 1 {
			t.Errorf("expected 1 image, got %d", len(artists[0].Images))
		}
		if artists[1].Images == nil {
			t.Error("images must be non-nil even when absent")
		}
	})

	t.Run("clamps match scores", func(t *testing.T) {
		cases := []struct {
			raw  string
			want float64
		}{
			{"0.5", 0.5},
			{"1.7", 1},
			{"-0.3", 0},
			{"garbage", 0},
			{"", 0},
		}
		for _, tc := range cases {
			if got := clampMatch(tc.raw); got != tc.want {
				t.Errorf("clampMatch(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		}
	})

	t.Run("error envelope with 200 status", func(t *testing.T) {
		svc := newTestLastFM(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"error": 6, "message": "The artist you supplied could not be found"})
		}))

		_, err := svc.SimilarArtists(context.Background(), "zzzzz", 5)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("unconfigured fails without a request", func(t *testing.T) {
		requests := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		defer srv.Close()

		svc := NewLastFMService("", "", srv.Client(), nil)
		svc.baseURL = srv.URL

		_, err := svc.SimilarArtists(context.Background(), "Radiohead", 5)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
		if requests != 0 {
			t.Errorf("expected no requests, got %d", requests)
		}
	})

	t.Run("rejects empty artist name", func(t *testing.T) {
		svc := NewLastFMService("k", "s", nil, nil)
		if _, err := svc.SimilarArtists(context.Background(), "", 5); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("non-2xx status", func(t *testing.T) {
		svc := newTestLastFM(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))

		if _, err := svc.SimilarArtists(context.Background(), "Radiohead", 5); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}
