package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSendsExpectedRequest(t *testing.T) {
	var captured generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, `{"response": "hello", "model": "test-model"}`)
	}))
	defer server.Close()

	client := NewLLMClient(server.URL, "test-model", 0)
	reply, err := client.Generate(context.Background(), "say hello", GenerateParams{
		Temperature: 0.3,
		MaxTokens:   128,
	})

	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
	assert.Equal(t, "test-model", captured.Model)
	assert.Equal(t, "say hello", captured.Prompt)
	assert.False(t, captured.Stream)
	assert.Equal(t, 0.3, captured.Options.Temperature)
	assert.Equal(t, 128, captured.Options.NumPredict)
}

func TestGenerateEncodesImages(t *testing.T) {
	var captured generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		fmt.Fprint(w, `{"response": "described"}`)
	}))
	defer server.Close()

	client := NewLLMClient(server.URL, "test-model", 0)
	_, err := client.Generate(context.Background(), "describe", GenerateParams{
		Model:  "vision-model",
		Images: [][]byte{{0x89, 0x50, 0x4e, 0x47}},
	})

	require.NoError(t, err)
	assert.Equal(t, "vision-model", captured.Model)
	require.Len(t, captured.Images, 1)
	assert.Equal(t, "iVBORw==", captured.Images[0])
}

func TestGenerateNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewLLMClient(server.URL, "test-model", 0)
	_, err := client.Generate(context.Background(), "p", GenerateParams{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestGenerateUnreachableBackend(t *testing.T) {
	client := NewLLMClient("http://127.0.0.1:1", "test-model", 0)
	_, err := client.Generate(context.Background(), "p", GenerateParams{})
	assert.Error(t, err)
}

func TestGenerateJSONExtractsWrappedObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response": "Sure! Here is the JSON you asked for:\n{\"a\": 1}\nLet me know if you need anything else."}`)
	}))
	defer server.Close()

	client := NewLLMClient(server.URL, "test-model", 0)
	block, err := client.GenerateJSON(context.Background(), "p", GenerateParams{})

	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, block)
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		fmt.Fprint(w, `{"models": [{"name": "test-model"}]}`)
	}))
	defer server.Close()

	assert.True(t, NewLLMClient(server.URL, "test-model", 0).HealthCheck(context.Background()))
	assert.False(t, NewLLMClient("http://127.0.0.1:1", "test-model", 0).HealthCheck(context.Background()))
}

func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"prose around", `Here you go: {"a": {"b": 2}} hope it helps`, `{"a": {"b": 2}}`, true},
		{"braces in strings", `{"text": "a } inside"}`, `{"text": "a } inside"}`, true},
		{"escaped quote", `{"text": "say \"hi\" } now"}`, `{"text": "say \"hi\" } now"}`, true},
		{"no object", "just text", "", false},
		{"unbalanced", `{"a": 1`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONBlock(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}
