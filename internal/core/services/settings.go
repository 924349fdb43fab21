package services

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMTemperature  = "llm.temperature"
	keyLLMMaxTokens    = "llm.max_tokens"
	keyLLMTopP         = "llm.top_p"
	keyLLMTimeout      = "llm.timeout_seconds"
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyTopK            = "retrieval.top_k"
	keyDataDir         = "storage.data_dir"
	keyPDFEngine       = "ingest.pdf_engine"
	keyMaxUploadMB     = "ingest.max_upload_mb"
	keyTranscribeURL   = "speech.transcribe_url"
	keyTranscribeModel = "speech.transcribe_model"
	keySpeechAPIKey    = "speech.api_key"
	keySpeakCommand    = "speech.speak_command"
)

// Environment variables that override stored API keys.
//
//nolint:gosec // G101: variable names only.
const (
	EnvEmbeddingAPIKey = "DOCQA_EMBEDDING_API_KEY"
	EnvLLMAPIKey       = "DOCQA_LLM_API_KEY"
	EnvSpeechAPIKey    = "DOCQA_SPEECH_API_KEY"
)

const ollamaBaseURL = "http://localhost:11434"

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
)

// keyKinds lists every settable key and how its value is parsed.
var keyKinds = map[string]keyKind{
	keyEmbedProvider:   kindString,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindString,
	keyLLMProvider:     kindString,
	keyLLMModel:        kindString,
	keyLLMBaseURL:      kindString,
	keyLLMAPIKey:       kindString,
	keyLLMTemperature:  kindFloat,
	keyLLMMaxTokens:    kindInt,
	keyLLMTopP:         kindFloat,
	keyLLMTimeout:      kindInt,
	keyChunkSize:       kindInt,
	keyChunkOverlap:    kindInt,
	keyTopK:            kindInt,
	keyDataDir:         kindString,
	keyPDFEngine:       kindString,
	keyMaxUploadMB:     kindInt,
	keyTranscribeURL:   kindString,
	keyTranscribeModel: kindString,
	keySpeechAPIKey:    kindString,
	keySpeakCommand:    kindString,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore    driven.ConfigStore
	aiValidator    driven.AIConfigValidator
	validate       *validator.Validate
	defaultDataDir string
	lookupEnv      func(string) string
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		lookupEnv:   os.Getenv,
	}
}

// SetDefaultDataDir sets the data directory used when none is configured.
func (s *SettingsService) SetDefaultDataDir(dir string) {
	s.defaultDataDir = dir
}

// Get retrieves current application settings.
// API keys from the environment take precedence over stored ones.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	return s.read(s.configStore), nil
}

// read builds settings from r, filling defaults for absent keys.
func (s *SettingsService) read(r configReader) *domain.AppSettings {
	defaults := domain.DefaultAppSettings()

	embedProvider := s.getProvider(r, keyEmbedProvider, defaults.Embedding.Provider)
	llmProvider := s.getProvider(r, keyLLMProvider, defaults.LLM.Provider)

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: embedProvider,
			Model:    s.getString(r, keyEmbedModel, domain.DefaultEmbeddingModels()[embedProvider]),
			BaseURL:  r.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.secret(r, keyEmbedAPIKey, EnvEmbeddingAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:    llmProvider,
			Model:       s.getString(r, keyLLMModel, domain.DefaultLLMModels()[llmProvider]),
			BaseURL:     r.GetString(keyLLMBaseURL),
			APIKey:      s.secret(r, keyLLMAPIKey, EnvLLMAPIKey),
			Temperature: s.getFloat(r, keyLLMTemperature, defaults.LLM.Temperature),
			MaxTokens:   s.getInt(r, keyLLMMaxTokens, defaults.LLM.MaxTokens),
			TopP:        s.getFloat(r, keyLLMTopP, defaults.LLM.TopP),
			Timeout:     time.Duration(s.getInt(r, keyLLMTimeout, int(defaults.LLM.Timeout/time.Second))) * time.Second,
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(r, keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(r, keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK: s.getInt(r, keyTopK, defaults.Retrieval.TopK),
		},
		Storage: domain.StorageSettings{
			DataDir: s.getString(r, keyDataDir, s.defaultDataDir),
		},
		Ingest: domain.IngestSettings{
			PDFEngine:      domain.PDFEngine(s.getString(r, keyPDFEngine, string(defaults.Ingest.PDFEngine))),
			MaxUploadBytes: int64(s.getInt(r, keyMaxUploadMB, int(defaults.Ingest.MaxUploadBytes>>20))) << 20,
		},
		Speech: domain.SpeechSettings{
			TranscribeURL:   r.GetString(keyTranscribeURL),
			TranscribeModel: s.getString(r, keyTranscribeModel, defaults.Speech.TranscribeModel),
			APIKey:          s.secret(r, keySpeechAPIKey, EnvSpeechAPIKey),
			SpeakCommand:    r.GetString(keySpeakCommand),
		},
	}

	return settings
}

// Save validates and persists application settings.
// Empty API keys are not written so a stored key is never cleared by accident.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.check(settings); err != nil {
		return err
	}

	values := []struct {
		key string
		val any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMTopP, settings.LLM.TopP},
		{keyLLMTimeout, int(settings.LLM.Timeout / time.Second)},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyTopK, settings.Retrieval.TopK},
		{keyPDFEngine, string(settings.Ingest.PDFEngine)},
		{keyMaxUploadMB, int(settings.Ingest.MaxUploadBytes >> 20)},
		{keyTranscribeURL, settings.Speech.TranscribeURL},
		{keyTranscribeModel, settings.Speech.TranscribeModel},
		{keySpeakCommand, settings.Speech.SpeakCommand},
	}
	if settings.Storage.DataDir != s.defaultDataDir {
		values = append(values, struct {
			key string
			val any
		}{keyDataDir, settings.Storage.DataDir})
	}
	for _, kv := range values {
		if err := s.configStore.Set(kv.key, kv.val); err != nil {
			return fmt.Errorf("save %s: %w", kv.key, err)
		}
	}

	secrets := map[string]string{
		keyEmbedAPIKey:  settings.Embedding.APIKey,
		keyLLMAPIKey:    settings.LLM.APIKey,
		keySpeechAPIKey: settings.Speech.APIKey,
	}
	for key, val := range secrets {
		if val == "" {
			continue
		}
		if err := s.configStore.Set(key, val); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// Keys lists the settable keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(keyKinds))
	for k := range keyKinds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Set parses value according to the key's type, persists it and rejects
// values that leave the settings invalid.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := keyKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	default:
		parsed = value
	}

	if key == keyEmbedProvider || key == keyLLMProvider {
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
	}

	candidate := s.read(overlay{configReader: s.configStore, key: key, val: parsed})
	if err := s.check(candidate); err != nil {
		return err
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" && s.lookupEnv(EnvEmbeddingAPIKey) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	if provider == domain.AIProviderOllama {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = ollamaBaseURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" && s.lookupEnv(EnvLLMAPIKey) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = ollamaBaseURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks the current settings against their constraints.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.check(settings)
}

// check runs struct validation and the cross-field rules tags cannot express.
func (s *SettingsService) check(settings *domain.AppSettings) error {
	if err := s.validate.Struct(settings); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	d := domain.DefaultAppSettings()
	d.Storage.DataDir = s.defaultDataDir
	return d
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

// configReader is the read side of driven.ConfigStore.
type configReader interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
}

// overlay shows one pending value on top of the stored configuration.
type overlay struct {
	configReader
	key string
	val any
}

func (o overlay) Get(key string) (any, bool) {
	if key == o.key {
		return o.val, true
	}
	return o.configReader.Get(key)
}

func (o overlay) GetString(key string) string {
	if key == o.key {
		str, _ := o.val.(string)
		return str
	}
	return o.configReader.GetString(key)
}

func (o overlay) GetInt(key string) int {
	if key == o.key {
		n, _ := o.val.(int)
		return n
	}
	return o.configReader.GetInt(key)
}

func (o overlay) GetFloat(key string) float64 {
	if key == o.key {
		switch v := o.val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
		return 0
	}
	return o.configReader.GetFloat(key)
}

func (s *SettingsService) getString(r configReader, key, defaultVal string) string {
	val := r.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(r configReader, key string, defaultVal int) int {
	if _, exists := r.Get(key); !exists {
		return defaultVal
	}
	return r.GetInt(key)
}

func (s *SettingsService) getFloat(r configReader, key string, defaultVal float64) float64 {
	if _, exists := r.Get(key); !exists {
		return defaultVal
	}
	return r.GetFloat(key)
}

func (s *SettingsService) getProvider(r configReader, key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := r.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) secret(r configReader, key, env string) string {
	if v := s.lookupEnv(env); v != "" {
		return v
	}
	return r.GetString(key)
}
