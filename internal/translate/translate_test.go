// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swapAPIBase(t *testing.T, url string) {
	t.Helper()
	prev := DeepLAPIBase
	DeepLAPIBase = url
	t.Cleanup(func() { DeepLAPIBase = prev })
}

func TestNewSelectsBackend(t *testing.T) {
	assert.IsType(t, Passthrough{}, New("", nil, nil))
	assert.IsType(t, &DeepL{}, New("key", nil, nil))
}

func TestPassthroughReturnsInput(t *testing.T) {
	got := Passthrough{}.Translate(context.Background(), "采矿许可证延续")
	assert.Equal(t, "采矿许可证延续", got)
}

func TestDeepLTranslates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("auth_key"))
		assert.Equal(t, "采矿许可证延续", r.PostForm.Get("text"))
		assert.Equal(t, "EN", r.PostForm.Get("target_lang"))
		w.Write([]byte(`{"translations":[{"text":"mining license renewal"}]}`))
	}))
	defer server.Close()
	swapAPIBase(t, server.URL)

	d := NewDeepL("secret", server.Client(), nil)
	assert.Equal(t, "mining license renewal", d.Translate(context.Background(), "采矿许可证延续"))
}

func TestDeepLJoinsMultipleTranslations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"translations":[{"text":"first"},{"text":"second"}]}`))
	}))
	defer server.Close()
	swapAPIBase(t, server.URL)

	d := NewDeepL("secret", server.Client(), nil)
	assert.Equal(t, "first\nsecond", d.Translate(context.Background(), "两段"))
}

func TestDeepLFailureReturnsInput(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
		{"empty translations", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"translations":[]}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()
			swapAPIBase(t, server.URL)

			d := NewDeepL("secret", server.Client(), nil)
			assert.Equal(t, "原文", d.Translate(context.Background(), "原文"))
		})
	}
}

func TestDeepLSkipsBlankInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("blank input must not hit the API")
	}))
	defer server.Close()
	swapAPIBase(t, server.URL)

	d := NewDeepL("secret", server.Client(), nil)
	assert.Equal(t, "  ", d.Translate(context.Background(), "  "))
}
