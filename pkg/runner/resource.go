package runner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"ap-comic-press/pkg/domain"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// AssetManager は参照画像を File API へ登録する最小限の契約です。
type AssetManager interface {
	UploadFile(ctx context.Context, path string) (string, error)
}

// StyleResourceManager は、埋め込み形式（data URL）の画風リファレンス画像を
// File API URI に解決します。同一画像の二重アップロードは singleflight と
// キャッシュで抑止します。
type StyleResourceManager struct {
	assets AssetManager
	uris   *cache.Cache
	group  singleflight.Group
}

// NewStyleResourceManager は StyleResourceManager を初期化します。
func NewStyleResourceManager(assets AssetManager, uriCache *cache.Cache) *StyleResourceManager {
	return &StyleResourceManager{
		assets: assets,
		uris:   uriCache,
	}
}

// Resolve は data URL を File API URI へ解決します。空入力は空文字を返します。
func (m *StyleResourceManager) Resolve(ctx context.Context, dataURL string) (string, error) {
	if strings.TrimSpace(dataURL) == "" {
		return "", nil
	}

	key := resourceKey(dataURL)
	if uri, ok := m.uris.Get(key); ok {
		return uri.(string), nil
	}

	val, err, _ := m.group.Do(key, func() (interface{}, error) {
		// singleflight で待機中に別のゴルーチンが解決済みの可能性があるため再確認
		if uri, ok := m.uris.Get(key); ok {
			return uri.(string), nil
		}

		uri, err := m.upload(ctx, dataURL)
		if err != nil {
			return "", err
		}
		m.uris.Set(key, uri, cache.DefaultExpiration)
		return uri, nil
	})
	if err != nil {
		return "", err
	}
	return val.(string), nil
}

// upload は data URL をデコードして一時ファイル経由で File API に登録します。
func (m *StyleResourceManager) upload(ctx context.Context, dataURL string) (string, error) {
	mimeType, data, err := domain.DecodeDataURL(dataURL)
	if err != nil {
		return "", fmt.Errorf("リファレンス画像のデコードに失敗しました: %w", err)
	}

	tmp, err := os.CreateTemp("", "style-ref-*"+extensionFor(mimeType))
	if err != nil {
		return "", fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			slog.Warn("一時ファイルの削除に失敗しました", "path", tmpPath, "error", rmErr)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("一時ファイルの書き込みに失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("一時ファイルのクローズに失敗しました: %w", err)
	}

	uri, err := m.assets.UploadFile(ctx, tmpPath)
	if err != nil {
		return "", fmt.Errorf("リファレンス画像のアップロードに失敗しました: %w", err)
	}
	return uri, nil
}

func resourceKey(dataURL string) string {
	sum := sha256.Sum256([]byte(dataURL))
	return hex.EncodeToString(sum[:8])
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
