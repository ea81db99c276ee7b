// Package llm provides the text-generation and embedding clients used by the
// analyst. It supports a local Ollama server and the OpenAI API, with optional
// response caching, rate limiting and retry through Service.
package llm
