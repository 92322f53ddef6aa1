package export

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"ap-comic-press/pkg/domain"
)

// A4縦（mm）。
const (
	pdfPageWidth  = 210.0
	pdfPageHeight = 297.0
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// PDFFileName はダウンロード用の PDF ファイル名を組み立てます。
func PDFFileName(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "comic"
	}
	return whitespaceRun.ReplaceAllString(title, "_") + "_comic.pdf"
}

type coverStrings struct {
	specialEdition string
	scriptArt      string
	authorUnknown  string
	untitled       string
}

func coverText(lang domain.Language) coverStrings {
	if lang == domain.LanguagePolish {
		return coverStrings{
			specialEdition: "Wydanie Specjalne",
			scriptArt:      "Scenariusz i Rysunki",
			authorUnknown:  "Autor Nieznany",
			untitled:       "TYTUŁ KOMIKSU",
		}
	}
	return coverStrings{
		specialEdition: "Special Edition",
		scriptArt:      "Script & Art",
		authorUnknown:  "Unknown Author",
		untitled:       "COMIC TITLE",
	}
}

// BuildPDF はカバーページと紙面ラスタを束ねた PDF を生成します。
// ポーランド語のタイトル・作者名を欠落なく描画するため cp1250 で変換します。
func BuildPDF(project domain.Project, layout domain.Layout, lang domain.Language) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(false, 0)
	tr := doc.UnicodeTranslatorFromDescriptor("cp1250")

	addCoverPage(doc, tr, project, lang)

	pages := domain.Panels(project.Panels).SplitPages(layout)
	for i, page := range pages {
		jpg, err := encodeJPEG(RenderPage(page, layout))
		if err != nil {
			return nil, &ExportError{Format: "pdf", Err: fmt.Errorf("ページ %d のラスタライズに失敗しました: %w", i+1, err)}
		}

		name := fmt.Sprintf("page-%d", i+1)
		opts := gofpdf.ImageOptions{ImageType: "JPEG"}
		doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(jpg))
		doc.AddPage()
		doc.ImageOptions(name, 0, 0, pdfPageWidth, pdfPageHeight, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, &ExportError{Format: "pdf", Err: err}
	}
	return buf.Bytes(), nil
}

// addCoverPage はタイトル・エディション表記・作者フッターからなる表紙を描画します。
func addCoverPage(doc *gofpdf.Fpdf, tr func(string) string, project domain.Project, lang domain.Language) {
	t := coverText(lang)
	doc.AddPage()

	// ロゴ（任意）
	if mime, data, err := domain.DecodeDataURL(project.Logo); err == nil && len(data) > 0 {
		imageType := "PNG"
		if mime == "image/jpeg" {
			imageType = "JPEG"
		}
		opts := gofpdf.ImageOptions{ImageType: imageType}
		doc.RegisterImageOptionsReader("cover-logo", opts, bytes.NewReader(data))
		doc.ImageOptions("cover-logo", pdfPageWidth/2-20, 18, 40, 0, false, opts, 0, "")
	}

	title := strings.ToUpper(strings.TrimSpace(project.Title))
	if title == "" {
		title = t.untitled
	}

	// タイトル枠
	doc.SetLineWidth(1.4)
	doc.SetDrawColor(0, 0, 0)
	doc.Rect(20, 95, pdfPageWidth-40, 70, "D")
	doc.SetFont("Helvetica", "B", 34)
	doc.SetTextColor(0, 0, 0)
	doc.SetXY(24, 105)
	doc.MultiCell(pdfPageWidth-48, 14, tr(title), "", "C", false)

	// エディション帯
	doc.SetFillColor(24, 24, 27)
	doc.Rect(55, 185, 100, 14, "F")
	doc.SetFont("Helvetica", "B", 14)
	doc.SetTextColor(255, 255, 255)
	doc.SetXY(55, 188)
	doc.CellFormat(100, 8, tr(strings.ToUpper(t.specialEdition)), "", 0, "C", false, 0, "")

	// 作者フッター
	author := strings.TrimSpace(project.Author)
	if author == "" {
		author = t.authorUnknown
	}
	doc.SetFillColor(24, 24, 27)
	doc.Rect(0, 255, pdfPageWidth, pdfPageHeight-255, "F")
	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(161, 161, 170)
	doc.SetXY(16, 263)
	doc.CellFormat(0, 5, tr(strings.ToUpper(t.scriptArt)), "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "B", 20)
	doc.SetTextColor(234, 179, 8)
	doc.SetXY(16, 270)
	doc.CellFormat(0, 10, tr(author), "", 0, "L", false, 0, "")
}
