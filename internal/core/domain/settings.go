package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API (or any compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderLocal is the in-process hashing embedder. Embeddings only.
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderLocal:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderLocal:
		return "Hashing embedder (in-process)"
	default:
		return unknownDescription
	}
}

// PDFEngine selects how PDF pages are extracted.
type PDFEngine string

// Available PDF engines.
const (
	// PDFEngineNative parses PDFs in-process.
	PDFEngineNative PDFEngine = "native"

	// PDFEnginePdftotext shells out to poppler's pdftotext.
	PDFEnginePdftotext PDFEngine = "pdftotext"
)

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `validate:"required,oneof=ollama openai local"`

	// Model is the embedding model name.
	Model string `validate:"required"`

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string `validate:"omitempty,url"`

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// Identity is the string recorded alongside a persisted index.
// Queries against an index must come from an embedder with the same identity.
func (e EmbeddingSettings) Identity() string {
	return EmbeddingIdentity(e.Provider, e.Model)
}

// EmbeddingIdentity formats provider and model as "provider:model".
func EmbeddingIdentity(provider AIProvider, model string) string {
	return string(provider) + ":" + model
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider `validate:"required,oneof=ollama openai anthropic"`

	// Model is the LLM model name.
	Model string `validate:"required"`

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string `validate:"omitempty,url"`

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature is the sampling temperature.
	Temperature float64 `validate:"gte=0,lte=2"`

	// MaxTokens caps the generated answer length.
	MaxTokens int `validate:"gt=0"`

	// TopP is the nucleus sampling threshold.
	TopP float64 `validate:"gt=0,lte=1"`

	// Timeout is the hard limit on one generation request.
	Timeout time.Duration `validate:"gt=0"`
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderLocal {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings controls how pages are split for indexing.
type ChunkingSettings struct {
	// Size is the chunk length in tokens.
	Size int `validate:"gt=0"`

	// Overlap is the number of tokens shared by consecutive chunks.
	Overlap int `validate:"gte=0,ltfield=Size"`
}

// RetrievalSettings controls question-time retrieval.
type RetrievalSettings struct {
	// TopK is the number of passages handed to the prompt builder.
	TopK int `validate:"gte=1,lte=50"`
}

// StorageSettings controls where sessions are persisted.
type StorageSettings struct {
	// DataDir holds data/<id>/ and models/<id>/ trees.
	DataDir string `validate:"required"`
}

// IngestSettings controls document ingestion.
type IngestSettings struct {
	// PDFEngine selects the PDF extractor.
	PDFEngine PDFEngine `validate:"oneof=native pdftotext"`

	// MaxUploadBytes is the largest document accepted.
	MaxUploadBytes int64 `validate:"gt=0"`
}

// SpeechSettings configures the optional voice collaborators.
type SpeechSettings struct {
	// TranscribeURL is an OpenAI-compatible API base used for speech-to-text.
	TranscribeURL string `validate:"omitempty,url"`

	// TranscribeModel is the transcription model name.
	TranscribeModel string

	// APIKey authenticates transcription requests.
	APIKey string

	// SpeakCommand is the text-to-speech program; text is written to its stdin.
	SpeakCommand string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Storage   StorageSettings
	Ingest    IngestSettings
	Speech    SpeechSettings
}

// Defaults used by DefaultAppSettings.
const (
	DefaultChunkSize       = 200
	DefaultChunkOverlap    = 40
	DefaultTopK            = 3
	DefaultTemperature     = 0.25
	DefaultMaxTokens       = 512
	DefaultTopP            = 0.9
	DefaultLLMTimeout      = 600 * time.Second
	DefaultMaxUploadBytes  = 100 << 20
	DefaultTranscribeModel = "whisper-1"
)

// DefaultAppSettings returns settings with sensible defaults.
// Both providers default to a local Ollama instance.
// DataDir is left empty; the caller fills it from the config directory.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		LLM: LLMSettings{
			Provider:    AIProviderOllama,
			Model:       DefaultLLMModels()[AIProviderOllama],
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
			TopP:        DefaultTopP,
			Timeout:     DefaultLLMTimeout,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK: DefaultTopK,
		},
		Ingest: IngestSettings{
			PDFEngine:      PDFEngineNative,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
		Speech: SpeechSettings{
			TranscribeModel: DefaultTranscribeModel,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderLocal,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderLocal:  "hashing-384",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "qwen3:4b-instruct",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// In-process
		"hashing-384": 384,
	}
}
