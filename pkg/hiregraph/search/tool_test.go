package search_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentops/hiregraph/pkg/hiregraph/llm"
	"github.com/talentops/hiregraph/pkg/hiregraph/search"
)

func TestTool_Run(t *testing.T) {
	t.Run("Returns_Result", func(t *testing.T) {
		tool := search.NewTool(search.SearcherFunc(func(ctx context.Context, query string) (string, error) {
			return "Go 1.24 released: generics improvements", nil
		}), nil)

		got := tool.Run(context.Background(), "go release")
		assert.Equal(t, "Go 1.24 released: generics improvements", got)
	})

	t.Run("Swallows_Errors", func(t *testing.T) {
		tool := search.NewTool(search.SearcherFunc(func(ctx context.Context, query string) (string, error) {
			return "", errors.New("backend down")
		}), nil)

		got := tool.Run(context.Background(), "anything")
		assert.Equal(t, search.NoResults, got)
	})

	t.Run("Empty_Result_Is_NoResults", func(t *testing.T) {
		tool := search.NewTool(search.SearcherFunc(func(ctx context.Context, query string) (string, error) {
			return "", nil
		}), nil)

		got := tool.Run(context.Background(), "obscure query")
		assert.Equal(t, search.NoResults, got)
	})

	t.Run("Truncates_Long_Results", func(t *testing.T) {
		long := strings.Repeat("a", 2000)
		tool := search.NewTool(search.SearcherFunc(func(ctx context.Context, query string) (string, error) {
			return long, nil
		}), nil)

		got := tool.Run(context.Background(), "q")
		assert.Len(t, got, search.MaxResultLen)
	})

	t.Run("Truncates_On_Rune_Boundary", func(t *testing.T) {
		long := strings.Repeat("é", 1000)
		tool := search.NewTool(search.SearcherFunc(func(ctx context.Context, query string) (string, error) {
			return long, nil
		}), nil)

		got := tool.Run(context.Background(), "q")
		assert.Equal(t, strings.Repeat("é", search.MaxResultLen), got)
	})
}

func TestTool_Invoke(t *testing.T) {
	t.Run("Dispatches_Query", func(t *testing.T) {
		var seen string
		tool := search.NewTool(search.SearcherFunc(func(ctx context.Context, query string) (string, error) {
			seen = query
			return "ok", nil
		}), nil)

		call := llm.ToolCall{
			ID:        "call_1",
			Name:      search.ToolName,
			Arguments: json.RawMessage(`{"query": "salary bands 2026"}`),
		}
		got := tool.Invoke(context.Background(), call)
		assert.Equal(t, "ok", got)
		assert.Equal(t, "salary bands 2026", seen)
	})

	t.Run("Malformed_Arguments", func(t *testing.T) {
		tool := search.NewTool(search.SearcherFunc(func(ctx context.Context, query string) (string, error) {
			t.Fatal("searcher should not be called")
			return "", nil
		}), nil)

		call := llm.ToolCall{Arguments: json.RawMessage(`not json`)}
		got := tool.Invoke(context.Background(), call)
		assert.Equal(t, search.NoResults, got)
	})

	t.Run("Missing_Query", func(t *testing.T) {
		tool := search.NewTool(search.SearcherFunc(func(ctx context.Context, query string) (string, error) {
			t.Fatal("searcher should not be called")
			return "", nil
		}), nil)

		call := llm.ToolCall{Arguments: json.RawMessage(`{}`)}
		got := tool.Invoke(context.Background(), call)
		assert.Equal(t, search.NoResults, got)
	})
}

func TestTool_Definition(t *testing.T) {
	tool := search.NewTool(search.SearcherFunc(func(ctx context.Context, query string) (string, error) {
		return "", nil
	}), nil)

	def := tool.Definition()
	assert.Equal(t, search.ToolName, def.Name)
	assert.NotEmpty(t, def.Description)
	assert.True(t, json.Valid(def.Parameters))
}

func TestHTTPSearcher(t *testing.T) {
	t.Run("Formats_Results", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "golang", r.URL.Query().Get("q"))
			json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]string{
					{"title": "The Go Programming Language", "snippet": "Go is an open source language."},
					{"title": "Go wiki", "snippet": "Community docs."},
				},
			})
		}))
		defer srv.Close()

		s := search.NewHTTPSearcher(srv.URL)
		got, err := s.Search(context.Background(), "golang")
		require.NoError(t, err)
		assert.Equal(t, "The Go Programming Language: Go is an open source language.\nGo wiki: Community docs.", got)
	})

	t.Run("Non_200_Is_Error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		s := search.NewHTTPSearcher(srv.URL)
		_, err := s.Search(context.Background(), "golang")
		assert.Error(t, err)
	})

	t.Run("Bad_Body_Is_Error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		s := search.NewHTTPSearcher(srv.URL)
		_, err := s.Search(context.Background(), "golang")
		assert.Error(t, err)
	})
}
