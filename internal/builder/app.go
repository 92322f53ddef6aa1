package builder

import (
	"ap-comic-press/internal/config"
	"ap-comic-press/pkg/pipeline"
	"ap-comic-press/pkg/runner"
	"ap-comic-press/pkg/store"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各ハンドラやコマンドに渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config    *config.Config             // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、保存先など）。
	Store     *store.Store               // Storeは、保存済みコミックのSQLite永続化層です。
	Pipeline  *pipeline.Pipeline         // Pipelineは、台本生成から画像生成までを取り仕切る司令塔です。
	Scripts   *runner.ComicScriptRunner  // Scriptsは、提案系（ストーリー案・主人公名・セリフ候補）にも直接使います。
	Marketing *runner.MarketingRunner    // Marketingは、カバーアートとボックスモックアップの生成を担います。
	Writer    remoteio.OutputWriter      // Writerは、CLIモードで成果物を書き出すための出力先です。

	aiClient   gemini.GenerativeModel  // aiClient はGeminiの通信に使う共通クライアント
	httpClient httpkit.ClientInterface // httpClient は外部APIとの通信に使う共通クライアント
}

// Close は保持しているリソースを解放する
func (a *AppContext) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
