package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"ap-comic-press/pkg/domain"
	"ap-comic-press/pkg/pipeline"
	"ap-comic-press/pkg/runner"
	"ap-comic-press/pkg/store"
)

// Server はコミック生成パイプラインを HTTP で公開するのだ。
// 生成系の操作は 202 を返して非同期に実行し、クライアントは
// GET /api/comic/state をポーリングして進行状況を追う。
type Server struct {
	pipe      *pipeline.Pipeline
	scripts   *runner.ComicScriptRunner
	marketing *runner.MarketingRunner
	db        *store.Store
	engine    *gin.Engine

	mu        sync.RWMutex
	lastError string
	assets    map[domain.MarketingAssetType]domain.MarketingAsset
}

// New はルーティングを設定済みの Server を生成します。
func New(pipe *pipeline.Pipeline, scripts *runner.ComicScriptRunner, marketing *runner.MarketingRunner, db *store.Store) *Server {
	s := &Server{
		pipe:      pipe,
		scripts:   scripts,
		marketing: marketing,
		db:        db,
		engine:    gin.Default(),
		assets:    make(map[domain.MarketingAssetType]domain.MarketingAsset),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.GET("/styles", s.handleStyles)
	api.GET("/layouts", s.handleLayouts)

	comic := api.Group("/comic")
	comic.POST("/generate", s.handleGenerate)
	comic.GET("/state", s.handleState)
	comic.POST("/extend", s.handleExtend)
	comic.POST("/panels/:number/regenerate", s.handleRegeneratePanel)
	comic.PATCH("/panels/:number", s.handleEditPanelText)
	comic.GET("/panels/:number/bubble-position", s.handleBubblePosition)
	comic.POST("/save", s.handleSave)
	comic.POST("/load", s.handleLoad)
	comic.POST("/reset", s.handleReset)

	api.GET("/history", s.handleHistory)
	api.DELETE("/history/:id", s.handleDeleteHistory)

	api.GET("/export/pdf", s.handleExportPDF)
	api.GET("/export/zip", s.handleExportZIP)

	api.GET("/marketing", s.handleMarketingState)
	api.POST("/marketing/:type", s.handleMarketingGenerate)

	suggest := api.Group("/suggest")
	suggest.GET("/idea", s.handleSuggestIdea)
	suggest.POST("/character-name", s.handleSuggestCharacterName)
	suggest.POST("/dialogue", s.handleSuggestDialogue)
}

// Handler はルーティング済みの http.Handler を返します。テストからも使います。
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run は HTTP サーバーを起動し、ctx のキャンセルでグレースフルに停止します。
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTPサーバーを起動するのだ", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("HTTPサーバーを停止します")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// setLastError は非同期処理の失敗を /api/comic/state で返せるように記録します。
func (s *Server) setLastError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

// lastErrorMessage は直近の非同期エラーを読み取ります。消去はせず、
// 次の生成要求が setLastError("") でクリアするまでポーリングに現れ続けます。
func (s *Server) lastErrorMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}
