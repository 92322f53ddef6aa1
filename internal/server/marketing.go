package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"ap-comic-press/pkg/domain"
	"ap-comic-press/pkg/runner"
)

// 販促素材はセッション限りのデータで、パネル生成とは独立に動くのだ。
// 同じ種別の生成だけを排他し、別種別は並行して要求できる。

func (s *Server) handleMarketingState(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assets := make(map[domain.MarketingAssetType]domain.MarketingAsset, len(s.assets))
	for k, v := range s.assets {
		assets[k] = v
	}
	c.JSON(http.StatusOK, assets)
}

type marketingPayload struct {
	CharacterName string `json:"characterName"`
	CoverImage    string `json:"coverImage"`
	Language      string `json:"language"`
}

func (s *Server) handleMarketingGenerate(c *gin.Context) {
	assetType := domain.MarketingAssetType(c.Param("type"))
	if !assetType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": message(domain.LanguagePolish, "invalid_request")})
		return
	}

	var payload marketingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": message(domain.LanguagePolish, "invalid_request")})
		return
	}
	lang := requestLanguage(payload.Language)

	snap := s.pipe.Snapshot()
	if len(snap.Panels) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": message(lang, "no_project")})
		return
	}
	if !s.beginMarketing(assetType) {
		c.JSON(http.StatusConflict, gin.H{"error": message(lang, "busy")})
		return
	}

	req := runner.MarketingRequest{
		Type:          assetType,
		Title:         snap.Title,
		Style:         snap.Style,
		CharacterName: payload.CharacterName,
		Author:        snap.Author,
		CoverImage:    payload.CoverImage,
	}

	go func() {
		resp, err := s.marketing.Generate(context.Background(), req)
		if err != nil {
			slog.Error("販促素材の生成に失敗しました", "type", assetType, "error", err)
			s.finishMarketing(assetType, domain.AssetError, "")
			return
		}
		s.finishMarketing(assetType, domain.AssetCompleted, domain.EncodeDataURL(resp.MimeType, resp.Data))
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// beginMarketing は対象種別を generating に遷移させます。すでに進行中なら false を返します。
func (s *Server) beginMarketing(assetType domain.MarketingAssetType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assets[assetType].Status == domain.AssetGenerating {
		return false
	}
	s.assets[assetType] = domain.MarketingAsset{Type: assetType, Status: domain.AssetGenerating}
	return true
}

// finishMarketing は生成結果を記録します。失敗時は直前の画像を保持しません。
func (s *Server) finishMarketing(assetType domain.MarketingAssetType, status domain.AssetStatus, imageURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[assetType] = domain.MarketingAsset{Type: assetType, Status: status, ImageURL: imageURL}
}

func (s *Server) clearMarketingAssets() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets = make(map[domain.MarketingAssetType]domain.MarketingAsset)
}
