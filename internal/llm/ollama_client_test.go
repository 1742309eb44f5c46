// internal/llm/ollama_client_test.go
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChunk(t *testing.T, w http.ResponseWriter, token string, done bool) {
	t.Helper()
	chunk := responseChunk{Model: "test-model", Response: token, Done: done}
	require.NoError(t, json.NewEncoder(w).Encode(chunk))
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func TestOllamaClient_Generate(t *testing.T) {
	t.Run("concatenates streamed tokens and reports each one", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req generateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "test-model", req.Model)
			assert.True(t, req.Stream)
			assert.Contains(t, req.Prompt, "photosynthesis")

			writeChunk(t, w, "Light ", false)
			writeChunk(t, w, "reactions ", false)
			writeChunk(t, w, "come first.", false)
			writeChunk(t, w, "", true)
		}))
		defer server.Close()

		client := NewOllamaClient(server.URL, "test-model", 5*time.Second)

		var tokens []string
		got, err := client.Generate(context.Background(), "Explain photosynthesis.", func(token string) {
			tokens = append(tokens, token)
		})

		require.NoError(t, err)
		assert.Equal(t, "Light reactions come first.", got)
		assert.Equal(t, []string{"Light ", "reactions ", "come first."}, tokens)
	})

	t.Run("nil token callback is allowed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeChunk(t, w, "Hello.", true)
		}))
		defer server.Close()

		client := NewOllamaClient(server.URL, "test-model", 5*time.Second)

		got, err := client.Generate(context.Background(), "Hi", nil)
		require.NoError(t, err)
		assert.Equal(t, "Hello.", got)
	})

	t.Run("malformed chunks are skipped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeChunk(t, w, "Part one. ", false)
			w.Write([]byte("this is not json\n"))
			writeChunk(t, w, "Part two.", true)
		}))
		defer server.Close()

		client := NewOllamaClient(server.URL, "test-model", 5*time.Second)

		got, err := client.Generate(context.Background(), "Hi", nil)
		require.NoError(t, err)
		assert.Equal(t, "Part one. Part two.", got)
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewOllamaClient(server.URL, "test-model", 5*time.Second)

		_, err := client.Generate(context.Background(), "Hi", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("empty stream is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeChunk(t, w, "", true)
		}))
		defer server.Close()

		client := NewOllamaClient(server.URL, "test-model", 5*time.Second)

		_, err := client.Generate(context.Background(), "Hi", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty response")
	})

	t.Run("cancellation mid-stream returns the partial output", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeChunk(t, w, "The first step ", false)
			// Hold the stream open until the client gives up.
			<-r.Context().Done()
		}))
		defer server.Close()

		client := NewOllamaClient(server.URL, "test-model", 30*time.Second)

		// Cancel only after the client has consumed the first token, so the
		// partial output is in its buffer.
		consumed := make(chan struct{})
		var once sync.Once

		done := make(chan struct{})
		var got string
		var err error
		go func() {
			defer close(done)
			got, err = client.Generate(ctx, "Hi", func(string) {
				once.Do(func() { close(consumed) })
			})
		}()

		<-consumed
		cancel()
		<-done

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, "The first step ", got)
	})
}
