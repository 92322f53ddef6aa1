package export

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"ap-comic-press/pkg/domain"
)

// tinyPNG はテスト用の単色画像を data URL として返します。
func tinyPNG(t *testing.T, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("テスト画像の生成に失敗しました: %v", err)
	}
	return domain.EncodeDataURL("image/png", buf.Bytes())
}

func exportProject(t *testing.T) domain.Project {
	t.Helper()
	return domain.Project{
		Story: domain.Story{
			ID:    "p-1",
			Title: "Kot detektyw",
			Panels: []domain.Panel{
				{PanelSpec: domain.PanelSpec{PanelNumber: 1, VisualDescription: "scene"}, Status: domain.StatusCompleted, ImageURL: tinyPNG(t, color.RGBA{R: 255, A: 255})},
				{PanelSpec: domain.PanelSpec{PanelNumber: 2, VisualDescription: "scene"}, Status: domain.StatusError},
				{PanelSpec: domain.PanelSpec{PanelNumber: 3, VisualDescription: "scene"}, Status: domain.StatusCompleted, ImageURL: tinyPNG(t, color.RGBA{B: 255, A: 255})},
				{PanelSpec: domain.PanelSpec{PanelNumber: 4, VisualDescription: "scene"}, Status: domain.StatusCompleted, ImageURL: tinyPNG(t, color.RGBA{G: 255, A: 255})},
			},
			CreatedAt: 1700000000000,
		},
		Author: "Jan Kowalski",
		Style:  domain.DefaultStyle(),
	}
}

func TestRenderPageDimensions(t *testing.T) {
	project := exportProject(t)
	page := RenderPage(domain.Panels(project.Panels[:2]), 2)
	if got := page.Bounds(); got.Dx() != pageWidthPx || got.Dy() != pageHeightPx {
		t.Errorf("紙面サイズが不正です: %v", got)
	}
}

func TestBuildZIPContents(t *testing.T) {
	project := exportProject(t)

	data, err := BuildZIP(project, 2)
	if err != nil {
		t.Fatalf("ZIP の生成に失敗しました: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("生成された ZIP が読み取れません: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}

	// 4パネル÷レイアウト2 = 2ページ。元画像は完成済みの3枚のみ。
	want := []string{
		"full_pages/cover.jpg",
		"full_pages/page_1.jpg",
		"full_pages/page_2.jpg",
		"raw_artwork/panel_1.png",
		"raw_artwork/panel_3.png",
		"raw_artwork/panel_4.png",
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("アーカイブに %s がありません", name)
		}
	}
	if names["raw_artwork/panel_2.png"] {
		t.Error("失敗パネルの元画像が含まれています")
	}
	if len(zr.File) != len(want) {
		t.Errorf("エントリ数が不正です: got=%d want=%d", len(zr.File), len(want))
	}
}

func TestBuildZIPRawArtworkIsOriginalBytes(t *testing.T) {
	project := exportProject(t)
	_, wantRaw, err := domain.DecodeDataURL(project.Panels[0].ImageURL)
	if err != nil {
		t.Fatal(err)
	}

	data, err := BuildZIP(project, 2)
	if err != nil {
		t.Fatalf("ZIP の生成に失敗しました: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}

	for _, f := range zr.File {
		if f.Name != "raw_artwork/panel_1.png" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		var got bytes.Buffer
		if _, err := got.ReadFrom(rc); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got.Bytes(), wantRaw) {
			t.Error("元画像が再エンコードされています")
		}
		return
	}
	t.Fatal("raw_artwork/panel_1.png が見つかりません")
}

func TestBuildPDF(t *testing.T) {
	project := exportProject(t)

	data, err := BuildPDF(project, 2, domain.LanguagePolish)
	if err != nil {
		t.Fatalf("PDF の生成に失敗しました: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("PDF ヘッダがありません")
	}
}

func TestPDFFileName(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Kot detektyw", "Kot_detektyw_comic.pdf"},
		{"  Wielki   skok  ", "Wielki_skok_comic.pdf"},
		{"", "comic_comic.pdf"},
	}
	for _, tc := range cases {
		if got := PDFFileName(tc.title); got != tc.want {
			t.Errorf("PDFFileName(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestRenderCoverWithoutPanels(t *testing.T) {
	cover := RenderCover(domain.Project{})
	if got := cover.Bounds(); got.Dx() != pageWidthPx || got.Dy() != pageHeightPx {
		t.Errorf("カバーサイズが不正です: %v", got)
	}
}
