package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"ap-comic-press/pkg/domain"
	"ap-comic-press/pkg/prompts"

	"github.com/google/uuid"
)

var (
	jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")
	quoteTrimmer   = strings.NewReplacer(`"`, "", `'`, "")
)

// TextModel は台本生成に必要な最小限のテキスト生成クライアント契約です。
type TextModel interface {
	GenerateText(ctx context.Context, prompt string, model string) (string, error)
}

// ScriptRequest は台本生成1回分の入力です。
type ScriptRequest struct {
	Prompt        string
	Style         domain.Style
	PageCount     int
	Layout        domain.Layout
	CharacterName string
	Language      domain.Language
}

// ExtendRequest は既存ストーリーの延長要求です。
// ContextPanels には物語の連続性を保つための直近パネルを渡します。
type ExtendRequest struct {
	Title            string
	Style            domain.Style
	CharacterName    string
	Language         domain.Language
	ContextPanels    []domain.PanelSpec
	PanelsToAdd      int
	StartPanelNumber int
}

// DialogueOption はセリフ候補1件です。
type DialogueOption struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Caption string `json:"caption,omitempty"`
}

// ComicScriptRunner は、テキストモデルで構造化された漫画台本を生成します。
type ComicScriptRunner struct {
	model         TextModel
	modelName     string
	promptBuilder *prompts.ScriptPromptBuilder
}

// NewComicScriptRunner は依存関係を注入して初期化します。
func NewComicScriptRunner(model TextModel, modelName string, pb *prompts.ScriptPromptBuilder) *ComicScriptRunner {
	return &ComicScriptRunner{
		model:         model,
		modelName:     modelName,
		promptBuilder: pb,
	}
}

// Run は新しい物語の台本を生成し、ID と作成時刻を採番した Story を返します。
// モデル呼び出しまたは応答パースの失敗は ScriptGenerationError になります。
func (sr *ComicScriptRunner) Run(ctx context.Context, req ScriptRequest) (domain.Story, error) {
	totalPanels := req.PageCount * int(req.Layout)

	prompt, err := sr.promptBuilder.Build(prompts.ModeScript, prompts.ScriptData{
		Prompt:           req.Prompt,
		StyleName:        req.Style.Name,
		StyleDescription: req.Style.Description,
		CharacterName:    req.CharacterName,
		TotalPanels:      totalPanels,
		PageCount:        req.PageCount,
		Layout:           int(req.Layout),
		LanguageName:     strings.ToUpper(req.Language.Name()),
	})
	if err != nil {
		return domain.Story{}, &ScriptGenerationError{Err: err}
	}

	slog.Info("ScriptRunner: 台本生成を開始します",
		"model", sr.modelName, "total_panels", totalPanels, "style", req.Style.ID)

	raw, err := sr.model.GenerateText(ctx, prompt, sr.modelName)
	if err != nil {
		return domain.Story{}, &ScriptGenerationError{Err: err}
	}

	story, err := sr.parseStory(raw)
	if err != nil {
		return domain.Story{}, &ScriptGenerationError{Err: err}
	}

	if story.ID == "" {
		story.ID = uuid.NewString()
	}
	story.CreatedAt = time.Now().UnixMilli()
	return story, nil
}

// Extend は延長モードで新規パネルのみを生成します。
// 採番は StartPanelNumber から始まり、既存パネルには一切触れません。
func (sr *ComicScriptRunner) Extend(ctx context.Context, req ExtendRequest) ([]domain.PanelSpec, error) {
	prompt, err := sr.promptBuilder.Build(prompts.ModeExtend, prompts.ExtendData{
		Title:            req.Title,
		StyleName:        req.Style.Name,
		CharacterName:    req.CharacterName,
		ContextPanels:    req.ContextPanels,
		PanelsToAdd:      req.PanelsToAdd,
		StartPanelNumber: req.StartPanelNumber,
		LanguageName:     strings.ToUpper(req.Language.Name()),
	})
	if err != nil {
		return nil, &ScriptGenerationError{Err: err}
	}

	slog.Info("ScriptRunner: 延長台本の生成を開始します",
		"model", sr.modelName, "panels_to_add", req.PanelsToAdd, "start", req.StartPanelNumber)

	raw, err := sr.model.GenerateText(ctx, prompt, sr.modelName)
	if err != nil {
		return nil, &ScriptGenerationError{Err: err}
	}

	specs, err := sr.parsePanels(raw)
	if err != nil {
		return nil, &ScriptGenerationError{Err: err}
	}
	return specs, nil
}

// SuggestStoryIdea はストーリーの種になる一文を提案します。
// 失敗時はエラーを返さず、言語ごとの定型フォールバックで埋めます。
func (sr *ComicScriptRunner) SuggestStoryIdea(ctx context.Context, lang domain.Language) string {
	fallback := "A detective cat solving a mystery in New York."
	if lang == domain.LanguagePolish {
		fallback = "Kot detektyw rozwiązuje zagadkę w Nowym Jorku."
	}

	prompt, err := sr.promptBuilder.Build(prompts.ModeIdea, prompts.IdeaData{Language: string(lang)})
	if err != nil {
		slog.Warn("ストーリー案プロンプトの構築に失敗しました", "error", err)
		return fallback
	}

	raw, err := sr.model.GenerateText(ctx, prompt, sr.modelName)
	if err != nil || strings.TrimSpace(raw) == "" {
		slog.Warn("ストーリー案の生成に失敗したためフォールバックを返します", "error", err)
		return fallback
	}
	return strings.TrimSpace(raw)
}

// SuggestCharacterName は主人公の名前を提案します。失敗時はフォールバック名を返します。
func (sr *ComicScriptRunner) SuggestCharacterName(ctx context.Context, storyPrompt string, style domain.Style, lang domain.Language) string {
	prompt, err := sr.promptBuilder.Build(prompts.ModeCharacterName, prompts.CharacterNameData{
		Prompt:       storyPrompt,
		StyleName:    style.Name,
		LanguageName: lang.Name(),
	})
	if err != nil {
		slog.Warn("主人公名プロンプトの構築に失敗しました", "error", err)
		return "Hero"
	}

	raw, err := sr.model.GenerateText(ctx, prompt, sr.modelName)
	if err != nil || strings.TrimSpace(raw) == "" {
		if lang == domain.LanguagePolish {
			return "Nieznajomy"
		}
		return "Stranger"
	}
	return quoteTrimmer.Replace(strings.TrimSpace(raw))
}

// SuggestDialogue は1パネルに対するセリフ候補（標準・劇的・コミカル）を生成します。
// 失敗時は空のスライスを返します。
func (sr *ComicScriptRunner) SuggestDialogue(ctx context.Context, spec domain.PanelSpec, style domain.Style, lang domain.Language) []DialogueOption {
	prompt, err := sr.promptBuilder.Build(prompts.ModeDialogue, prompts.DialogueData{
		VisualDescription: spec.VisualDescription,
		Dialogue:          spec.Dialogue,
		Character:         spec.Character,
		StyleName:         style.Name,
		LanguageName:      lang.Name(),
	})
	if err != nil {
		slog.Warn("セリフ候補プロンプトの構築に失敗しました", "error", err)
		return nil
	}

	raw, err := sr.model.GenerateText(ctx, prompt, sr.modelName)
	if err != nil {
		slog.Warn("セリフ候補の生成に失敗しました", "panel", spec.PanelNumber, "error", err)
		return nil
	}

	var options []DialogueOption
	if err := json.Unmarshal([]byte(extractJSON(raw, '[', ']')), &options); err != nil {
		slog.Warn("セリフ候補の解析に失敗しました", "panel", spec.PanelNumber, "error", err)
		return nil
	}
	return options
}

// BubblePosition は吹き出しの配置座標（パネルに対するパーセンテージ）です。
type BubblePosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DetectBubblePosition は話者の頭上に置くべき吹き出し位置を推定します。
// 失敗時はエラーを返さず、フレーム中央上のデフォルト位置を返します。
func (sr *ComicScriptRunner) DetectBubblePosition(ctx context.Context, spec domain.PanelSpec) BubblePosition {
	fallback := BubblePosition{X: 50, Y: 20}

	prompt, err := sr.promptBuilder.Build(prompts.ModeBubblePosition, prompts.BubblePositionData{
		VisualDescription: spec.VisualDescription,
		Character:         spec.Character,
		Dialogue:          spec.Dialogue,
	})
	if err != nil {
		slog.Warn("吹き出し位置プロンプトの構築に失敗しました", "error", err)
		return fallback
	}

	raw, err := sr.model.GenerateText(ctx, prompt, sr.modelName)
	if err != nil {
		slog.Warn("吹き出し位置の推定に失敗しました", "panel", spec.PanelNumber, "error", err)
		return fallback
	}

	var pos BubblePosition
	if err := json.Unmarshal([]byte(extractJSON(raw, '{', '}')), &pos); err != nil {
		slog.Warn("吹き出し位置の解析に失敗しました", "panel", spec.PanelNumber, "error", err)
		return fallback
	}

	// はみ出し防止のためフレーム内にクランプします
	pos.X = clampFloat(pos.X, 10, 90)
	pos.Y = clampFloat(pos.Y, 10, 80)
	return pos
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// parseStory は AI 応答から {title, panels} 形式の台本を復元します。
func (sr *ComicScriptRunner) parseStory(raw string) (domain.Story, error) {
	var parsed struct {
		ID     string             `json:"id"`
		Title  string             `json:"title"`
		Panels []domain.PanelSpec `json:"panels"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw, '{', '}')), &parsed); err != nil {
		return domain.Story{}, fmt.Errorf("AIからの応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}
	if len(parsed.Panels) == 0 {
		return domain.Story{}, fmt.Errorf("台本にパネルが1件も含まれていません (応答抜粋: %q)", truncateString(raw, 200))
	}

	panels := make([]domain.Panel, len(parsed.Panels))
	for i, spec := range parsed.Panels {
		panels[i] = domain.Panel{PanelSpec: spec, Status: domain.StatusPending}
	}
	return domain.Story{ID: parsed.ID, Title: parsed.Title, Panels: panels}, nil
}

// parsePanels は AI 応答から PanelSpec の配列を復元します。
func (sr *ComicScriptRunner) parsePanels(raw string) ([]domain.PanelSpec, error) {
	var specs []domain.PanelSpec
	if err := json.Unmarshal([]byte(extractJSON(raw, '[', ']')), &specs); err != nil {
		return nil, fmt.Errorf("延長応答のJSON解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("延長応答にパネルが1件も含まれていません")
	}
	return specs, nil
}

// extractJSON はコードフェンスや前後の文章を取り除き、JSON 本体らしき部分を切り出します。
func extractJSON(raw string, open, close byte) string {
	raw = strings.TrimSpace(raw)

	if matches := jsonBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		return matches[1]
	}

	// Fallback 1: 最外の開閉括弧の範囲を取り出す
	first := strings.IndexByte(raw, open)
	last := strings.LastIndexByte(raw, close)
	if first != -1 && last != -1 && last > first {
		return raw[first : last+1]
	}

	// Fallback 2: 応答全体を JSON とみなす
	return raw
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
