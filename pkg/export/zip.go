package export

import (
	"archive/zip"
	"bytes"
	"fmt"

	"ap-comic-press/pkg/domain"
)

// ZIPFileName はダウンロード用のアーカイブ名です。
const ZIPFileName = "comic_pack.zip"

// BuildZIP は紙面ラスタと元画像を束ねたアーカイブを生成します。
//
//	full_pages/cover.jpg     カバー紙面
//	full_pages/page_N.jpg    レイアウト済みの各ページ
//	raw_artwork/panel_N.png  完成済みパネルの元画像
func BuildZIP(project domain.Project, layout domain.Layout) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	cover, err := encodeJPEG(RenderCover(project))
	if err != nil {
		return nil, &ExportError{Format: "zip", Err: fmt.Errorf("カバーのラスタライズに失敗しました: %w", err)}
	}
	if err := writeZipFile(zw, "full_pages/cover.jpg", cover); err != nil {
		return nil, err
	}

	for i, page := range domain.Panels(project.Panels).SplitPages(layout) {
		jpg, err := encodeJPEG(RenderPage(page, layout))
		if err != nil {
			return nil, &ExportError{Format: "zip", Err: fmt.Errorf("ページ %d のラスタライズに失敗しました: %w", i+1, err)}
		}
		if err := writeZipFile(zw, fmt.Sprintf("full_pages/page_%d.jpg", i+1), jpg); err != nil {
			return nil, err
		}
	}

	for _, panel := range domain.Panels(project.Panels).Completed() {
		_, raw, err := domain.DecodeDataURL(panel.ImageURL)
		if err != nil {
			// 壊れた埋め込み画像はアーカイブから外すだけに留める
			continue
		}
		if err := writeZipFile(zw, fmt.Sprintf("raw_artwork/panel_%d.png", panel.PanelNumber), raw); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, &ExportError{Format: "zip", Err: err}
	}
	return buf.Bytes(), nil
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return &ExportError{Format: "zip", Err: err}
	}
	if _, err := w.Write(data); err != nil {
		return &ExportError{Format: "zip", Err: err}
	}
	return nil
}
