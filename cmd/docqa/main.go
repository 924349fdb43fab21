// Command docqa answers questions about uploaded documents.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/speech/command"
	"github.com/custodia-labs/docqa/internal/adapters/driven/speech/whisper"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/disk"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/extractors"
	"github.com/custodia-labs/docqa/internal/extractors/docx"
	"github.com/custodia-labs/docqa/internal/extractors/html"
	"github.com/custodia-labs/docqa/internal/extractors/markdown"
	"github.com/custodia-labs/docqa/internal/extractors/pdf"
	"github.com/custodia-labs/docqa/internal/extractors/pdftotext"
	"github.com/custodia-labs/docqa/internal/extractors/plaintext"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
	"github.com/custodia-labs/docqa/internal/vectorindex"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal.
	_ = godotenv.Load()

	configDir, err := file.DefaultDir()
	if err != nil {
		return fmt.Errorf("locating config directory: %w", err)
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settingsService.SetDefaultDataDir(configDir)

	cli.SetVersion(version)
	svc := cli.Services{Settings: settingsService}

	settings, err := settingsService.Get()
	if err != nil {
		svc.Err = err
		cli.SetServices(svc)
		return cli.Execute(context.Background())
	}

	cleanup, err := wire(&svc, settings)
	if err != nil {
		// Settings commands still work so the configuration can be fixed.
		logger.Warn("%v", err)
		svc.Err = err
	}
	defer cleanup()

	cli.SetServices(svc)
	return cli.Execute(context.Background())
}

// wire builds the document services from settings into svc.
func wire(svc *cli.Services, settings *domain.AppSettings) (func(), error) {
	nop := func() {}
	root := settings.Storage.DataDir

	sessions, err := disk.NewSessionStore(root)
	if err != nil {
		return nop, err
	}
	documents, err := disk.NewDocumentStore(root)
	if err != nil {
		return nop, err
	}
	indexes, err := sqlite.NewIndexStore(root)
	if err != nil {
		return nop, err
	}
	cache := vectorindex.NewCache(indexes)

	// Listing and deleting sessions needs no AI backend.
	svc.Session = services.NewSessionService(sessions, documents, indexes, cache)

	aiServices, err := ai.Init(settings)
	if err != nil {
		return nop, err
	}

	registry := extractors.NewRegistry(
		pdfExtractor(settings.Ingest.PDFEngine),
		plaintext.New(),
		markdown.New(),
		docx.New(),
		html.New(),
	)
	chunks := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)
	svc.Ingest = services.NewIngestionService(registry, chunks, aiServices.EmbeddingService, sessions, documents, indexes)

	var generator *services.Generator
	if aiServices.LLMService != nil {
		generator = services.NewGenerator(aiServices.LLMService, services.GenerateOptionsFromSettings(settings.LLM))
	}
	retriever := services.NewRetriever(cache, aiServices.EmbeddingService, settings.Retrieval.TopK)
	svc.Chat = services.NewChatService(sessions, retriever, generator)

	svc.Transcriber, svc.Speaker = speech(settings.Speech)

	return aiServices.Close, nil
}

func pdfExtractor(engine domain.PDFEngine) driven.PageExtractor {
	if engine == domain.PDFEnginePdftotext {
		if err := pdftotext.CheckAvailable(); err != nil {
			logger.Warn("%v; using the native PDF parser\n%s", err, pdftotext.InstallInstructions())
			return pdf.New()
		}
		return pdftotext.New()
	}
	return pdf.New()
}

func speech(s domain.SpeechSettings) (driven.Transcriber, driven.Speaker) {
	var (
		transcriber driven.Transcriber
		speaker     driven.Speaker
	)
	if s.TranscribeURL != "" {
		transcriber = whisper.New(whisper.Config{
			BaseURL: s.TranscribeURL,
			Model:   s.TranscribeModel,
			APIKey:  s.APIKey,
		})
	}
	if s.SpeakCommand != "" {
		sp, err := command.New(s.SpeakCommand)
		if err != nil {
			logger.Warn("speech.speak_command: %v", err)
		} else {
			speaker = sp
		}
	}
	return transcriber, speaker
}
