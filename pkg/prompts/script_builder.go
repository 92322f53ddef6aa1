package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

// テンプレートのモード識別子です。
const (
	ModeScript         = "script"
	ModeExtend         = "extend"
	ModeDialogue       = "dialogue_options"
	ModeIdea           = "story_idea"
	ModeCharacterName  = "character_name"
	ModeBubblePosition = "bubble_position"
)

//go:embed templates/script.md
var scriptTemplate string

//go:embed templates/extend.md
var extendTemplate string

//go:embed templates/dialogue_options.md
var dialogueTemplate string

//go:embed templates/story_idea.md
var ideaTemplate string

//go:embed templates/character_name.md
var characterNameTemplate string

//go:embed templates/bubble_position.md
var bubblePositionTemplate string

// allTemplates はモードとテンプレート本文を紐づけるマップです。
var allTemplates = map[string]string{
	ModeScript:         scriptTemplate,
	ModeExtend:         extendTemplate,
	ModeDialogue:       dialogueTemplate,
	ModeIdea:           ideaTemplate,
	ModeCharacterName:  characterNameTemplate,
	ModeBubblePosition: bubblePositionTemplate,
}

// ScriptPromptBuilder は台本系プロンプトの構成を管理し、モード選択のロジックを内包します。
type ScriptPromptBuilder struct {
	templates map[string]*template.Template
}

// NewScriptPromptBuilder は埋め込みテンプレートを解析して ScriptPromptBuilder を初期化します。
func NewScriptPromptBuilder() (*ScriptPromptBuilder, error) {
	parsed := make(map[string]*template.Template, len(allTemplates))
	for mode, content := range allTemplates {
		if content == "" {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' (go:embed) の読み込みに失敗しました: 内容が空です", mode)
		}
		tmpl, err := template.New(mode).Parse(content)
		if err != nil {
			return nil, fmt.Errorf("プロンプト '%s' の解析に失敗しました: %w", mode, err)
		}
		parsed[mode] = tmpl
	}
	return &ScriptPromptBuilder{templates: parsed}, nil
}

// Build は、要求されたモードのテンプレートへデータを流し込みます。
func (b *ScriptPromptBuilder) Build(mode string, data any) (string, error) {
	tmpl, ok := b.templates[mode]
	if !ok {
		return "", fmt.Errorf("不明なモードです: '%s'", mode)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("プロンプトテンプレートの実行に失敗しました: %w", err)
	}
	return sb.String(), nil
}
