package prompts

import (
	"fmt"
	"strings"

	"ap-comic-press/pkg/domain"
)

const (
	// NegativePanelPrompt は、パネル用のネガティブプロンプトです。
	// 吹き出しと文字は表示層で合成するため、画像側からは徹底的に排除します。
	NegativePanelPrompt = "speech bubble, dialogue balloon, text, alphabet, letters, words, signatures, watermark, username, low quality, distorted, bad anatomy"

	// panelSystemInstruction はパネル生成の画家としての役割指示です。
	panelSystemInstruction = "You are a professional comic book artist. Create a single high-quality cinematic scene."

	// qualityTags は全パネル共通の品質指示です。
	qualityTags = "High quality, detailed, cinematic lighting."
)

// ImagePromptBuilder は、画風とキャラクター設定を考慮して画像プロンプトを構築します。
type ImagePromptBuilder struct{}

// NewImagePromptBuilder は新しい ImagePromptBuilder を生成します。
func NewImagePromptBuilder() *ImagePromptBuilder {
	return &ImagePromptBuilder{}
}

// BuildPanelPrompt は、単体パネル用の UserPrompt と SystemPrompt を生成します。
// hasStyleReference が真の場合、添付画像を画風リファレンスとして扱う指示を追加します。
func (pb *ImagePromptBuilder) BuildPanelPrompt(spec domain.PanelSpec, style domain.Style, characterName string, hasStyleReference bool) (userPrompt, systemPrompt string) {
	systemParts := []string{
		panelSystemInstruction,
		qualityTags,
		fmt.Sprintf("### GLOBAL VISUAL STYLE ###\n%s - %s", style.Name, style.Description),
		"STRICTLY RETURN AN IMAGE. Do not provide textual commentary.",
	}
	systemPrompt = strings.Join(systemParts, "\n\n")

	var userParts []string
	if characterName != "" {
		userParts = append(userParts, fmt.Sprintf("Main character is %s. Keep appearance consistent.", characterName))
	}
	userParts = append(userParts, fmt.Sprintf("Scene Description: %s", spec.VisualDescription))
	if hasStyleReference {
		userParts = append(userParts, "Style Reference: USE THE ATTACHED IMAGE AS A STRICT STYLE REFERENCE for line art style, color palette, and mood.")
	}
	userPrompt = strings.Join(userParts, "\n")

	return userPrompt, systemPrompt
}

// BuildMarketingPrompt は、販促素材用のプロンプトとアスペクト比を生成します。
func (pb *ImagePromptBuilder) BuildMarketingPrompt(assetType domain.MarketingAssetType, title string, style domain.Style, characterName, author string, hasCoverReference bool) (prompt, aspectRatio string) {
	switch assetType {
	case domain.AssetIntroPage:
		aspectRatio = "3:4"
		if author == "" {
			author = "Unknown"
		}
		prompt = strings.Join([]string{
			"Create a cinematic, high-quality comic book cover/intro page art.",
			fmt.Sprintf("Title concept: %q.", title),
			fmt.Sprintf("Author: %q.", author),
			fmt.Sprintf("Style: %s (%s).", style.Name, style.Description),
			fmt.Sprintf("Character: %s.", characterName),
			"Epic pose, dramatic lighting, vertical composition (Aspect Ratio 3:4).",
			"Integrate the Title visually if possible, or leave space for it.",
		}, "\n")
	default: // domain.AssetBoxMockup
		aspectRatio = "1:1"
		prompt = strings.Join([]string{
			"Product photography, 3D render of a collector's box set for a comic book.",
			fmt.Sprintf("The box should have the comic art style: %s.", style.Name),
			fmt.Sprintf("Title on box: %q.", title),
			"Isometric view, studio lighting, white background.",
			"High quality, photorealistic 3D mockup.",
		}, "\n")
		if hasCoverReference {
			prompt += "\nUse the attached image as the cover art on the box."
		}
	}
	return prompt, aspectRatio
}
