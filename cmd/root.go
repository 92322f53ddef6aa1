package cmd

import (
	"fmt"
	"os"

	"ap-comic-press/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ストーリー入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.Prompt, "prompt", "p", "", "コミックの元になるストーリーの説明なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.StyleID, "style", "s", "modern-comic", "アートスタイルのIDなのだ（styles コマンドで一覧できる）。")
	rootCmd.PersistentFlags().IntVar(&opts.PageCount, "pages", 1, "生成するページ数なのだ。")
	rootCmd.PersistentFlags().IntVarP(&opts.Layout, "layout", "l", 2, "1ページあたりのパネル数なのだ（1 / 2 / 4 / 6）。")
	rootCmd.PersistentFlags().StringVarP(&opts.CharacterName, "character", "c", "", "主人公の名前なのだ（省略可）。")
	rootCmd.PersistentFlags().StringVar(&opts.Language, "lang", "pl", "セリフとタイトルの言語なのだ（pl / en）。")
	rootCmd.PersistentFlags().StringVar(&opts.Author, "author", "", "表紙に載せる作者名なのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", "output", "成果物の保存先（ローカル or gs://...）なのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", config.DefaultModel, "台本生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", config.DefaultImageModel, "画像生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "外部APIリクエストのタイムアウトなのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// styles コマンドは API キーなしで動くのだ
	if cmd.Name() == "styles" {
		return nil
	}
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}
	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"ap-comic-press",
		addAppFlags,
		preRunAppE,
		serveCmd,
		generateCmd,
		stylesCmd,
	)
}

// loadConfig は環境変数の設定にフラグの上書きを重ねるのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.GeminiImageModel = opts.ImageModel
	cfg.HTTPTimeout = opts.HTTPTimeout
	cfg.Options = opts
	return cfg
}
