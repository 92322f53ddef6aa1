package cmd

import (
	"bytes"
	"fmt"
	"log/slog"

	"ap-comic-press/internal/builder"
	"ap-comic-press/pkg/asset"
	"ap-comic-press/pkg/domain"
	"ap-comic-press/pkg/export"
	"ap-comic-press/pkg/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、ストーリーの説明からコミック一式をワンショットで生成するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "台本とパネル画像を生成して、PDFとZIPを書き出すのだ。",
	Long: `ストーリーの説明から台本を生成し、パネル画像を1枚ずつ順番に描いて、
完成したコミックをPDFとZIPアーカイブとして保存するのだ。
一部のパネルが失敗しても、残りのパネルの生成は続行されるのだよ。`,
	RunE: generateCommand,
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.Prompt == "" {
		return fmt.Errorf("ストーリーの説明（--prompt）を指定してほしいのだ")
	}
	style, err := domain.StyleByID(opts.StyleID)
	if err != nil {
		return fmt.Errorf("スタイルの指定が不正なのだ: %w", err)
	}
	lang := domain.Language(opts.Language)
	if !lang.Valid() {
		return fmt.Errorf("言語の指定が不正なのだ（pl / en）: %q", opts.Language)
	}

	cfg := loadConfig()
	appCtx, err := builder.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("アプリケーションの初期化に失敗したのだ: %w", err)
	}
	defer appCtx.Close()

	slog.Info("コミック生成パイプラインを起動するのだ！",
		"style", style.ID,
		"pages", opts.PageCount,
		"layout", opts.Layout,
		"text_model", cfg.GeminiModel,
		"image_model", cfg.GeminiImageModel)

	req := pipeline.GenerateRequest{
		Prompt:        opts.Prompt,
		Style:         style,
		PageCount:     opts.PageCount,
		Layout:        domain.Layout(opts.Layout),
		CharacterName: opts.CharacterName,
		Language:      lang,
		Author:        opts.Author,
	}
	if err := appCtx.Pipeline.RunFullGeneration(ctx, req); err != nil {
		return fmt.Errorf("コミック生成中にエラーが発生したのだ: %w", err)
	}

	snap := appCtx.Pipeline.Snapshot()
	completed := len(domain.Panels(snap.Panels).Completed())
	slog.Info("パネル生成が完了したのだ",
		"title", snap.Title, "completed", completed, "total", len(snap.Panels))
	if completed < len(snap.Panels) {
		slog.Warn("一部のパネルは生成に失敗したのだ。Webモードで再生成できるのだよ",
			"failed", len(snap.Panels)-completed)
	}

	return writeArtifacts(cmd, appCtx, snap, domain.Layout(opts.Layout), lang)
}

// writeArtifacts は PDF と ZIP を組み立てて出力先へ保存するのだ。
func writeArtifacts(cmd *cobra.Command, appCtx *builder.AppContext, snap domain.Project, layout domain.Layout, lang domain.Language) error {
	ctx := cmd.Context()

	pdfData, err := export.BuildPDF(snap, layout, lang)
	if err != nil {
		return fmt.Errorf("PDFの書き出しに失敗したのだ: %w", err)
	}
	pdfPath, err := asset.ResolveOutputPath(opts.OutputDir, export.PDFFileName(snap.Title))
	if err != nil {
		return fmt.Errorf("PDFの出力パスを解決できないのだ: %w", err)
	}
	if err := appCtx.Writer.Write(ctx, pdfPath, bytes.NewReader(pdfData), "application/pdf"); err != nil {
		return fmt.Errorf("PDFの保存に失敗したのだ: %w", err)
	}
	slog.Info("PDFを保存したのだ！", "path", pdfPath)

	zipData, err := export.BuildZIP(snap, layout)
	if err != nil {
		return fmt.Errorf("ZIPの書き出しに失敗したのだ: %w", err)
	}
	zipPath, err := asset.ResolveOutputPath(opts.OutputDir, export.ZIPFileName)
	if err != nil {
		return fmt.Errorf("ZIPの出力パスを解決できないのだ: %w", err)
	}
	if err := appCtx.Writer.Write(ctx, zipPath, bytes.NewReader(zipData), "application/zip"); err != nil {
		return fmt.Errorf("ZIPの保存に失敗したのだ: %w", err)
	}
	slog.Info("ZIPアーカイブを保存したのだ！", "path", zipPath)

	return nil
}
