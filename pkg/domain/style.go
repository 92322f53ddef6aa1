package domain

import "fmt"

// Style は画風プリセットの定義です。ID・名称・説明は不変の参照データで、
// TitleFont / BubbleFont / Preview は表示層へ渡すヒントです。
type Style struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TitleFont   string `json:"titleFont,omitempty"`
	BubbleFont  string `json:"bubbleFont,omitempty"`
	Preview     string `json:"previewClass,omitempty"`
}

// comicStyles は選択可能な画風の閉じたカタログです。
// Description は画像生成プロンプトにそのまま注入されます。
var comicStyles = []Style{
	{
		ID:          "modern-comic",
		Name:        "Współczesny",
		Description: "Żywe kolory, ostre linie, szczegółowe tła, styl superbohaterski.",
		Preview:     "preview-modern",
	},
	{
		ID:          "manga",
		Name:        "Manga / Anime",
		Description: "Czarno-białe lub delikatne kolory, ekspresyjne oczy, dynamiczne linie akcji.",
		Preview:     "preview-manga",
	},
	{
		ID:          "noir",
		Name:        "Film Noir",
		Description: "Wysoki kontrast czerni i bieli, dramatyczne cienie, mroczna atmosfera.",
		Preview:     "preview-noir",
	},
	{
		ID:          "watercolor",
		Name:        "Akwarela",
		Description: "Miękkie krawędzie, pastelowe kolory, artystyczny, bajkowy styl.",
		Preview:     "preview-watercolor",
	},
	{
		ID:          "retro-pop",
		Name:        "Retro Pop Art",
		Description: "Wzory rastrowe, odważne kolory podstawowe, grube kontury, styl lat 50.",
		Preview:     "preview-retro-pop",
	},
	{
		ID:          "3d-render",
		Name:        "3D Render",
		Description: "Styl pixar/disney, miękkie oświetlenie, render 3D.",
		Preview:     "preview-3d",
	},
	{
		ID:          "cyberpunk",
		Name:        "Cyberpunk",
		Description: "Neonowe światła, futurystyczne miasto, styl high-tech, intensywne kolory.",
		Preview:     "preview-cyberpunk",
	},
	{
		ID:          "sketch",
		Name:        "Szkic Ołówkiem",
		Description: "Surowe linie, grafitowe cienie, efekt ręcznego rysunku na papierze.",
		Preview:     "preview-sketch",
	},
	{
		ID:          "detective",
		Name:        "Komiks Detektywistyczny",
		Description: "Mroczne, miejskie krajobrazy, wysoki kontrast, styl noir z dodatkiem detali technicznych.",
		Preview:     "preview-detective",
	},
	{
		ID:          "nostalgia",
		Name:        "Komiks Nostalgia",
		Description: "Klasyczne historie z dzieciństwa, ciepłe kolory, lekko wyblakłe. Idealny do opowieści o wspomnieniach.",
		Preview:     "preview-nostalgia",
	},
}

// Styles はカタログの防御的コピーを返します。
func Styles() []Style {
	out := make([]Style, len(comicStyles))
	copy(out, comicStyles)
	return out
}

// DefaultStyle はカタログの先頭（既定の画風）を返します。
func DefaultStyle() Style {
	return comicStyles[0]
}

// StyleByID は ID に一致する画風を返します。未登録の ID はエラーです。
func StyleByID(id string) (Style, error) {
	for _, s := range comicStyles {
		if s.ID == id {
			return s, nil
		}
	}
	return Style{}, fmt.Errorf("未登録の画風IDです: %q", id)
}

// Validate は画風が必須フィールドを備えているか検証します。
// 保存済みプロジェクトから復元した画風にも適用します。
func (s Style) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("画風の ID が空です")
	}
	if s.Name == "" {
		return fmt.Errorf("画風 %q の名称が空です", s.ID)
	}
	if s.Description == "" {
		return fmt.Errorf("画風 %q の説明が空です", s.ID)
	}
	return nil
}
