package export

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	"ap-comic-press/pkg/domain"
)

// A4縦を150dpi相当でラスタライズしたときのページ寸法です。
const (
	pageWidthPx  = 1240
	pageHeightPx = 1754
	pageMarginPx = 64
	gutterPx     = 32
	borderPx     = 4
	jpegQuality  = 90
)

var (
	pageBackground   = color.White
	panelBorderColor = color.Black
	placeholderGray  = color.RGBA{R: 0xE4, G: 0xE4, B: 0xE7, A: 0xFF}
)

// gridDims はレイアウトをページ上の列数・行数に対応付けます。
func gridDims(layout domain.Layout) (cols, rows int) {
	switch layout {
	case 1:
		return 1, 1
	case 2:
		return 1, 2
	case 4:
		return 2, 2
	default:
		return 2, 3
	}
}

// RenderPage は1ページ分のパネルをグリッド配置した紙面ラスタを生成します。
// 画像が無いパネル（pending / error）はグレーのプレースホルダになります。
func RenderPage(panels domain.Panels, layout domain.Layout) *image.RGBA {
	dst := newBlankPage()
	cols, rows := gridDims(layout)

	cellW := (pageWidthPx - 2*pageMarginPx - (cols-1)*gutterPx) / cols
	cellH := (pageHeightPx - 2*pageMarginPx - (rows-1)*gutterPx) / rows

	for i, panel := range panels {
		if i >= cols*rows {
			break
		}
		col := i % cols
		row := i / cols
		x0 := pageMarginPx + col*(cellW+gutterPx)
		y0 := pageMarginPx + row*(cellH+gutterPx)
		cell := image.Rect(x0, y0, x0+cellW, y0+cellH)

		fillRect(dst, cell, panelBorderColor)
		inner := cell.Inset(borderPx)
		fillRect(dst, inner, placeholderGray)

		if img, err := decodePanelImage(panel.ImageURL); err == nil {
			fillRect(dst, inner, pageBackground)
			drawFitted(dst, inner, img)
		}
	}
	return dst
}

// RenderCover は ZIP 用のカバー紙面を生成します。
// ロゴを上部に、完成済みの先頭パネルをメインビジュアルとして配置します。
func RenderCover(project domain.Project) *image.RGBA {
	dst := newBlankPage()

	logoBottom := pageMarginPx
	if logo, err := decodePanelImage(project.Logo); err == nil {
		logoArea := image.Rect(pageMarginPx, pageMarginPx, pageWidthPx-pageMarginPx, pageMarginPx+200)
		drawFitted(dst, logoArea, logo)
		logoBottom = logoArea.Max.Y + gutterPx
	}

	completed := domain.Panels(project.Panels).Completed()
	if len(completed) == 0 {
		return dst
	}
	if img, err := decodePanelImage(completed[0].ImageURL); err == nil {
		area := image.Rect(pageMarginPx, logoBottom, pageWidthPx-pageMarginPx, pageHeightPx-pageMarginPx)
		fillRect(dst, area, panelBorderColor)
		drawFitted(dst, area.Inset(borderPx), img)
	}
	return dst
}

func newBlankPage() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, pageWidthPx, pageHeightPx))
	fillRect(dst, dst.Bounds(), pageBackground)
	return dst
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	xdraw.Draw(dst, r, &image.Uniform{C: c}, image.Point{}, xdraw.Src)
}

// drawFitted は元画像のアスペクト比を保ったまま領域内に収め、中央に配置します。
func drawFitted(dst *image.RGBA, area image.Rectangle, src image.Image) {
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 || area.Dx() <= 0 || area.Dy() <= 0 {
		return
	}

	scaleX := float64(area.Dx()) / float64(sb.Dx())
	scaleY := float64(area.Dy()) / float64(sb.Dy())
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}

	w := int(float64(sb.Dx()) * scale)
	h := int(float64(sb.Dy()) * scale)
	x0 := area.Min.X + (area.Dx()-w)/2
	y0 := area.Min.Y + (area.Dy()-h)/2
	target := image.Rect(x0, y0, x0+w, y0+h)

	xdraw.ApproxBiLinear.Scale(dst, target, src, sb, xdraw.Over, nil)
}

func decodePanelImage(dataURL string) (image.Image, error) {
	_, data, err := domain.DecodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
