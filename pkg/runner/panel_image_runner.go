package runner

import (
	"context"
	"log/slog"
	"time"

	"ap-comic-press/pkg/domain"
	"ap-comic-press/pkg/prompts"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
)

// maxImageAttempts は1パネルあたりの生成試行回数の上限です。
// モデルがテキストのみを返すケースを一時的な失敗として扱うための固定値で、
// 呼び出し側からは変更できません。
const maxImageAttempts = 3

// PanelAspectRatio は単体パネルの推奨アスペクト比です。
const PanelAspectRatio = "4:3"

// PanelArtist は画像生成クライアントの最小限の契約です。
type PanelArtist interface {
	GenerateMangaPanel(ctx context.Context, req imagedom.ImageGenerationRequest) (*imagedom.ImageResponse, error)
}

// PanelContext は1パネルの画像生成に共通して適用される文脈です。
type PanelContext struct {
	Style          domain.Style
	CharacterName  string
	StyleReference string // data URL。空なら参照なし
}

// PanelImageRunner は、台本のパネル1件からパネル画像を生成します。
type PanelImageRunner struct {
	artist    PanelArtist
	prompts   *prompts.ImagePromptBuilder
	resources *StyleResourceManager
}

// NewPanelImageRunner は依存関係を注入して初期化します。
func NewPanelImageRunner(artist PanelArtist, pb *prompts.ImagePromptBuilder, resources *StyleResourceManager) *PanelImageRunner {
	return &PanelImageRunner{
		artist:    artist,
		prompts:   pb,
		resources: resources,
	}
}

// Generate は1パネル分の画像を生成します。
// 画像ペイロードを持たない応答は一時的な失敗とみなし、固定回数まで再試行します。
// 全試行を使い切った場合は ImageGenerationError を返します。
func (r *PanelImageRunner) Generate(ctx context.Context, spec domain.PanelSpec, pctx PanelContext) (*imagedom.ImageResponse, error) {
	fileURI := r.resolveReference(ctx, pctx.StyleReference)
	userPrompt, systemPrompt := r.prompts.BuildPanelPrompt(spec, pctx.Style, pctx.CharacterName, fileURI != "")

	logger := slog.With("panel", spec.PanelNumber, "style", pctx.Style.ID, "use_file_api", fileURI != "")

	var lastErr error
	for attempt := 1; attempt <= maxImageAttempts; attempt++ {
		start := time.Now()
		resp, err := r.artist.GenerateMangaPanel(ctx, imagedom.ImageGenerationRequest{
			Prompt:         userPrompt,
			SystemPrompt:   systemPrompt,
			NegativePrompt: prompts.NegativePanelPrompt,
			AspectRatio:    PanelAspectRatio,
			FileAPIURI:     fileURI,
		})
		if err != nil {
			logger.Warn("パネル生成の試行に失敗しました", "attempt", attempt, "error", err)
			lastErr = err
			continue
		}
		if resp == nil || len(resp.Data) == 0 {
			// モデルがテキストのみを返した場合。リトライで解消することが多い
			logger.Warn("モデルが画像データを返しませんでした", "attempt", attempt)
			continue
		}

		logger.Info("パネル生成が完了しました", "attempt", attempt, "duration", time.Since(start).Round(time.Millisecond))
		return resp, nil
	}

	return nil, &ImageGenerationError{PanelNumber: spec.PanelNumber, Attempts: maxImageAttempts, Err: lastErr}
}

// resolveReference は画風リファレンスを File API URI へ解決します。
// 解決に失敗しても生成自体は続行できるため、警告を記録して参照なしで進めます。
func (r *PanelImageRunner) resolveReference(ctx context.Context, dataURL string) string {
	uri, err := r.resources.Resolve(ctx, dataURL)
	if err != nil {
		slog.Warn("画風リファレンスの解決に失敗したため、参照なしで生成します", "error", err)
		return ""
	}
	return uri
}
