package domain

// PanelSpec は台本生成によって確定する、1コマ分の不変な構成情報です。
type PanelSpec struct {
	PanelNumber       int    `json:"panelNumber"`
	VisualDescription string `json:"visualDescription"`
	Dialogue          string `json:"dialogue,omitempty"`
	Caption           string `json:"caption,omitempty"`
	Character         string `json:"character,omitempty"`
}

// PanelStatus はパネル画像生成の進行状態です。
type PanelStatus string

const (
	StatusPending    PanelStatus = "pending"
	StatusGenerating PanelStatus = "generating"
	StatusCompleted  PanelStatus = "completed"
	StatusError      PanelStatus = "error"
)

// IsTerminal は completed / error のいずれかであれば true を返します。
func (s PanelStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Panel は PanelSpec に生成状態と画像を加えた可変データです。
// ImageURL は data:<mime>;base64,... 形式の埋め込み画像で、
// completed へ遷移したときにのみ新しい値が設定されます。
// 再生成中および再生成失敗時は、直前の画像をそのまま保持します。
type Panel struct {
	PanelSpec
	Status   PanelStatus `json:"status"`
	ImageURL string      `json:"imageUrl,omitempty"`
}

// Story はタイトルとパネル列からなる物語の単位です。
// Panels は panelNumber 昇順で保持されます。
type Story struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Panels    []Panel `json:"panels"`
	CreatedAt int64   `json:"createdAt"`
}

// Project は永続化の単位で、Story に装丁メタデータを加えたものです。
// Logo と StyleReference は埋め込み画像（data URL）です。
type Project struct {
	Story
	Author         string `json:"author"`
	Style          Style  `json:"style"`
	Logo           string `json:"logo,omitempty"`
	StyleReference string `json:"styleReference,omitempty"`
}

// Layout は1ページあたりのパネル数です。
type Layout int

// 選択可能なレイアウトの一覧です。
var LayoutOptions = []Layout{1, 2, 4, 6}

// Valid は Layout が選択可能な値かどうかを返します。
func (l Layout) Valid() bool {
	switch l {
	case 1, 2, 4, 6:
		return true
	}
	return false
}

// Language は台本のセリフ・キャプション・タイトルの出力言語です。
type Language string

const (
	LanguagePolish  Language = "pl"
	LanguageEnglish Language = "en"
)

// Valid は Language がサポート対象かどうかを返します。
func (l Language) Valid() bool {
	return l == LanguagePolish || l == LanguageEnglish
}

// Name は画像・台本プロンプトに埋め込む英語表記の言語名を返します。
func (l Language) Name() string {
	if l == LanguagePolish {
		return "Polish"
	}
	return "English"
}
