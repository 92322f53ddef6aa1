package cmd

import (
	"fmt"
	"log/slog"

	"ap-comic-press/internal/builder"
	"ap-comic-press/internal/server"

	"github.com/spf13/cobra"
)

// serveCmd は、コミック生成 API サーバーを起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "コミック生成のHTTP APIサーバーを起動するのだ。",
	Long: `台本生成・パネル画像生成・編集・保存・エクスポートを提供する
HTTP APIサーバーを起動するのだ。生成の進行は /api/comic/state で追えるのだよ。`,
	RunE: serveCommand,
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig()

	appCtx, err := builder.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("アプリケーションの初期化に失敗したのだ: %w", err)
	}
	defer appCtx.Close()

	// セッションの取りこぼしを防ぐ定期自動保存なのだ
	appCtx.Pipeline.StartAutosave(ctx)

	slog.Info("コミック生成サーバーを起動するのだ！",
		"addr", cfg.ListenAddr,
		"text_model", cfg.GeminiModel,
		"image_model", cfg.GeminiImageModel,
		"db", cfg.DatabasePath)

	srv := server.New(appCtx.Pipeline, appCtx.Scripts, appCtx.Marketing, appCtx.Store)
	if err := srv.Run(ctx, cfg.ListenAddr); err != nil {
		return fmt.Errorf("サーバーの実行中にエラーが発生したのだ: %w", err)
	}
	return nil
}
