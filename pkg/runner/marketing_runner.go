package runner

import (
	"context"
	"log/slog"

	"ap-comic-press/pkg/domain"
	"ap-comic-press/pkg/prompts"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// MarketingRequest は販促素材の生成要求です。
// CoverImage には化粧箱モックアップの参照に使う表紙画像（data URL）を渡せます。
type MarketingRequest struct {
	Type          domain.MarketingAssetType
	Title         string
	Style         domain.Style
	CharacterName string
	Author        string
	CoverImage    string
}

// MarketingRunner は表紙アートと化粧箱モックアップを生成します。
type MarketingRunner struct {
	artist    PanelArtist
	prompts   *prompts.ImagePromptBuilder
	resources *StyleResourceManager
}

// NewMarketingRunner は依存関係を注入して初期化します。
func NewMarketingRunner(artist PanelArtist, pb *prompts.ImagePromptBuilder, resources *StyleResourceManager) *MarketingRunner {
	return &MarketingRunner{
		artist:    artist,
		prompts:   pb,
		resources: resources,
	}
}

// Generate は販促素材1点を生成します。リトライの方針はパネル生成と同じです。
func (r *MarketingRunner) Generate(ctx context.Context, req MarketingRequest) (*imagedom.ImageResponse, error) {
	var fileURI string
	if req.Type == domain.AssetBoxMockup && req.CoverImage != "" {
		uri, err := r.resources.Resolve(ctx, req.CoverImage)
		if err != nil {
			slog.Warn("表紙参照画像の解決に失敗したため、参照なしで生成します", "error", err)
		} else {
			fileURI = uri
		}
	}

	prompt, aspectRatio := r.prompts.BuildMarketingPrompt(
		req.Type, req.Title, req.Style, req.CharacterName, req.Author, fileURI != "")

	logger := slog.With("asset_type", req.Type, "title", req.Title)

	var lastErr error
	for attempt := 1; attempt <= maxImageAttempts; attempt++ {
		resp, err := r.artist.GenerateMangaPanel(ctx, imagedom.ImageGenerationRequest{
			Prompt:      prompt,
			AspectRatio: aspectRatio,
			FileAPIURI:  fileURI,
		})
		if err != nil {
			logger.Warn("販促素材生成の試行に失敗しました", "attempt", attempt, "error", err)
			lastErr = err
			continue
		}
		if resp == nil || len(resp.Data) == 0 {
			logger.Warn("モデルが画像データを返しませんでした", "attempt", attempt)
			continue
		}

		logger.Info("販促素材の生成が完了しました", "attempt", attempt)
		return resp, nil
	}

	return nil, &ImageGenerationError{Attempts: maxImageAttempts, Err: lastErr}
}
