package prompts

import "ap-comic-press/pkg/domain"

// ScriptData は台本生成テンプレートに渡すデータです。
type ScriptData struct {
	Prompt           string
	StyleName        string
	StyleDescription string
	CharacterName    string
	TotalPanels      int
	PageCount        int
	Layout           int
	LanguageName     string
}

// ExtendData は延長テンプレートに渡すデータです。
// ContextPanels には直近のパネル（通常3件）を渡します。
type ExtendData struct {
	Title            string
	StyleName        string
	CharacterName    string
	ContextPanels    []domain.PanelSpec
	PanelsToAdd      int
	StartPanelNumber int
	LanguageName     string
}

// DialogueData はセリフ候補テンプレートに渡すデータです。
type DialogueData struct {
	VisualDescription string
	Dialogue          string
	Character         string
	StyleName         string
	LanguageName      string
}

// IdeaData はストーリー案テンプレートに渡すデータです。
type IdeaData struct {
	Language string
}

// CharacterNameData は主人公名テンプレートに渡すデータです。
type CharacterNameData struct {
	Prompt       string
	StyleName    string
	LanguageName string
}

// BubblePositionData は吹き出し位置テンプレートに渡すデータです。
type BubblePositionData struct {
	VisualDescription string
	Character         string
	Dialogue          string
}
