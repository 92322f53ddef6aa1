package builder

import (
	"context"
	"fmt"

	"ap-comic-press/internal/config"
	"ap-comic-press/pkg/pipeline"
	"ap-comic-press/pkg/prompts"
	"ap-comic-press/pkg/runner"
	"ap-comic-press/pkg/store"

	"github.com/patrickmn/go-cache"
	imagekit "github.com/shouni/gemini-image-kit/pkg/generator"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"google.golang.org/genai"
)

// Build はアプリケーション全体の依存グラフを一度だけ組み立てるのだ。
func Build(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY が設定されていません")
	}

	httpClient := httpkit.New(cfg.HTTPTimeout)

	aiClient, err := initializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	rioFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("RemoteIOファクトリの初期化に失敗しました: %w", err)
	}
	reader, err := rioFactory.NewInputReader()
	if err != nil {
		return nil, fmt.Errorf("InputReaderの取得に失敗しました: %w", err)
	}
	writer, err := rioFactory.NewOutputWriter()
	if err != nil {
		return nil, fmt.Errorf("OutputWriterの取得に失敗しました: %w", err)
	}

	// 画像生成エンジンの初期化
	imgCache := cache.New(cfg.ReferenceTTL, 2*cfg.ReferenceTTL)
	core, err := imagekit.NewGeminiImageCore(aiClient, reader, httpClient, imgCache, cfg.ReferenceTTL)
	if err != nil {
		return nil, fmt.Errorf("GeminiImageCore の初期化に失敗したのだ: %w", err)
	}
	artist, err := imagekit.NewGeminiGenerator(cfg.GeminiImageModel, core)
	if err != nil {
		return nil, fmt.Errorf("GeminiGeneratorの初期化に失敗したのだ: %w", err)
	}

	// プロンプトビルダーと Runner 群
	scriptPrompts, err := prompts.NewScriptPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("プロンプトビルダーの作成に失敗しました: %w", err)
	}
	imagePrompts := prompts.NewImagePromptBuilder()
	resources := runner.NewStyleResourceManager(core, cache.New(cfg.ReferenceTTL, 2*cfg.ReferenceTTL))

	scripts := runner.NewComicScriptRunner(newTextModel(aiClient), cfg.GeminiModel, scriptPrompts)
	panelImages := runner.NewPanelImageRunner(artist, imagePrompts, resources)
	marketing := runner.NewMarketingRunner(artist, imagePrompts, resources)

	// 永続化層
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	pipe := pipeline.New(scripts, panelImages, db, pipeline.Options{
		PanelInterval:    cfg.PanelInterval,
		AutosaveInterval: cfg.AutosaveInterval,
	})

	return &AppContext{
		Config:     cfg,
		Store:      db,
		Pipeline:   pipe,
		Scripts:    scripts,
		Marketing:  marketing,
		Writer:     writer,
		aiClient:   aiClient,
		httpClient: httpClient,
	}, nil
}

// initializeAIClient は gemini クライアントを初期化します。
func initializeAIClient(ctx context.Context, apiKey string) (gemini.GenerativeModel, error) {
	const defaultGeminiTemperature = float32(0.8)
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(defaultGeminiTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// textModel は gemini クライアントを runner.TextModel 契約へ合わせる薄いアダプタです。
type textModel struct {
	client gemini.GenerativeModel
}

func newTextModel(client gemini.GenerativeModel) runner.TextModel {
	return &textModel{client: client}
}

func (m *textModel) GenerateText(ctx context.Context, prompt string, model string) (string, error) {
	resp, err := m.client.GenerateContent(ctx, prompt, model)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
