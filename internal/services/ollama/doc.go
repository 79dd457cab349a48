// Package ollama wraps the local Ollama HTTP API used for taxonomy generation
// and file classification. The client issues single-shot, non-streaming
// completions and maps transport failures onto the services error taxonomy so
// callers can fall back without parsing message text.
package ollama
