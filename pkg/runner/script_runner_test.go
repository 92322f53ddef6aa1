package runner

import (
	"context"
	"errors"
	"testing"

	"ap-comic-press/pkg/domain"
	"ap-comic-press/pkg/prompts"
)

// fakeTextModel は決め打ちの応答を返すテスト用の TextModel です。
type fakeTextModel struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeTextModel) GenerateText(_ context.Context, prompt string, _ string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func newScriptRunner(t *testing.T, model TextModel) *ComicScriptRunner {
	t.Helper()
	pb, err := prompts.NewScriptPromptBuilder()
	if err != nil {
		t.Fatalf("プロンプトビルダーの初期化に失敗しました: %v", err)
	}
	return NewComicScriptRunner(model, "test-model", pb)
}

func scriptRequest() ScriptRequest {
	return ScriptRequest{
		Prompt:    "A cat detective",
		Style:     domain.DefaultStyle(),
		PageCount: 1,
		Layout:    2,
		Language:  domain.LanguageEnglish,
	}
}

func TestComicScriptRunner_Run(t *testing.T) {
	const storyJSON = `{"title":"Koci Detektyw","panels":[
		{"panelNumber":1,"visualDescription":"a cat in a trench coat","dialogue":"Hm."},
		{"panelNumber":2,"visualDescription":"rainy alley","caption":"Noc."}]}`

	t.Run("素のJSONを解析できること", func(t *testing.T) {
		runner := newScriptRunner(t, &fakeTextModel{response: storyJSON})

		story, err := runner.Run(context.Background(), scriptRequest())
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if story.Title != "Koci Detektyw" {
			t.Errorf("期待値 'Koci Detektyw', 実際の値 '%s'", story.Title)
		}
		if len(story.Panels) != 2 {
			t.Fatalf("期待値 2 パネル, 実際の値 %d", len(story.Panels))
		}
		for _, p := range story.Panels {
			if p.Status != domain.StatusPending {
				t.Errorf("パネル %d の初期状態は pending のはずが %s でした", p.PanelNumber, p.Status)
			}
		}
		if story.ID == "" {
			t.Error("プロジェクトIDが採番されていません")
		}
		if story.CreatedAt == 0 {
			t.Error("作成時刻が設定されていません")
		}
	})

	t.Run("コードフェンス付きのJSONを解析できること", func(t *testing.T) {
		runner := newScriptRunner(t, &fakeTextModel{response: "```json\n" + storyJSON + "\n```"})
		if _, err := runner.Run(context.Background(), scriptRequest()); err != nil {
			t.Fatalf("フェンス付き応答の解析に失敗しました: %v", err)
		}
	})

	t.Run("前後に文章が付いた応答でも解析できること", func(t *testing.T) {
		runner := newScriptRunner(t, &fakeTextModel{response: "Here is your script:\n" + storyJSON + "\nEnjoy!"})
		if _, err := runner.Run(context.Background(), scriptRequest()); err != nil {
			t.Fatalf("括弧フォールバックでの解析に失敗しました: %v", err)
		}
	})

	t.Run("モデル呼び出し失敗は ScriptGenerationError になること", func(t *testing.T) {
		runner := newScriptRunner(t, &fakeTextModel{err: errors.New("boom")})
		_, err := runner.Run(context.Background(), scriptRequest())
		var scriptErr *ScriptGenerationError
		if !errors.As(err, &scriptErr) {
			t.Fatalf("ScriptGenerationError ではありませんでした: %v", err)
		}
	})

	t.Run("解析不能な応答は ScriptGenerationError になること", func(t *testing.T) {
		runner := newScriptRunner(t, &fakeTextModel{response: "sorry, I cannot do that"})
		_, err := runner.Run(context.Background(), scriptRequest())
		var scriptErr *ScriptGenerationError
		if !errors.As(err, &scriptErr) {
			t.Fatalf("ScriptGenerationError ではありませんでした: %v", err)
		}
	})

	t.Run("パネル0件の台本は拒否されること", func(t *testing.T) {
		runner := newScriptRunner(t, &fakeTextModel{response: `{"title":"x","panels":[]}`})
		if _, err := runner.Run(context.Background(), scriptRequest()); err == nil {
			t.Error("空の台本でエラーが発生しませんでした")
		}
	})
}

func TestComicScriptRunner_Extend(t *testing.T) {
	const panelsJSON = `[
		{"panelNumber":5,"visualDescription":"sunrise over the city"},
		{"panelNumber":6,"visualDescription":"the cat walks away"}]`

	runner := newScriptRunner(t, &fakeTextModel{response: panelsJSON})
	specs, err := runner.Extend(context.Background(), ExtendRequest{
		Title:            "Koci Detektyw",
		Style:            domain.DefaultStyle(),
		Language:         domain.LanguageEnglish,
		ContextPanels:    []domain.PanelSpec{{PanelNumber: 4, VisualDescription: "cliffhanger"}},
		PanelsToAdd:      2,
		StartPanelNumber: 5,
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("期待値 2, 実際の値 %d", len(specs))
	}
	if specs[0].PanelNumber != 5 {
		t.Errorf("先頭パネルの番号は 5 のはずが %d でした", specs[0].PanelNumber)
	}
}

func TestComicScriptRunner_SuggestStoryIdea(t *testing.T) {
	t.Run("失敗時は言語別のフォールバックを返すこと", func(t *testing.T) {
		runner := newScriptRunner(t, &fakeTextModel{err: errors.New("quota")})
		idea := runner.SuggestStoryIdea(context.Background(), domain.LanguagePolish)
		if idea != "Kot detektyw rozwiązuje zagadkę w Nowym Jorku." {
			t.Errorf("ポーランド語フォールバックが返りませんでした: %q", idea)
		}
	})

	t.Run("成功時はトリム済みの本文を返すこと", func(t *testing.T) {
		runner := newScriptRunner(t, &fakeTextModel{response: "  A timekeeper fixes 1985.  "})
		idea := runner.SuggestStoryIdea(context.Background(), domain.LanguageEnglish)
		if idea != "A timekeeper fixes 1985." {
			t.Errorf("期待値と異なります: %q", idea)
		}
	})
}

func TestComicScriptRunner_SuggestDialogue(t *testing.T) {
	const optionsJSON = `[
		{"type":"Standard","text":"Spokojnie."},
		{"type":"Dramatic","text":"To koniec!","caption":"Grom."},
		{"type":"Funny","text":"Kto zjadł moje śledzie?"}]`

	runner := newScriptRunner(t, &fakeTextModel{response: optionsJSON})
	options := runner.SuggestDialogue(context.Background(),
		domain.PanelSpec{PanelNumber: 1, VisualDescription: "storm"},
		domain.DefaultStyle(), domain.LanguagePolish)

	if len(options) != 3 {
		t.Fatalf("期待値 3, 実際の値 %d", len(options))
	}
	if options[1].Caption != "Grom." {
		t.Errorf("キャプションが復元されていません: %+v", options[1])
	}

	// 失敗時は空を返す
	broken := newScriptRunner(t, &fakeTextModel{response: "not json"})
	if got := broken.SuggestDialogue(context.Background(), domain.PanelSpec{}, domain.DefaultStyle(), domain.LanguageEnglish); got != nil {
		t.Errorf("解析不能な応答では nil のはずが %v でした", got)
	}
}

func TestComicScriptRunner_DetectBubblePosition(t *testing.T) {
	spec := domain.PanelSpec{PanelNumber: 1, VisualDescription: "a cat shouting on a rooftop", Dialogue: "Stój!"}

	t.Run("座標がフレーム内にクランプされること", func(t *testing.T) {
		runner := newScriptRunner(t, &fakeTextModel{response: `{"x": 97, "y": 3}`})
		pos := runner.DetectBubblePosition(context.Background(), spec)
		if pos.X != 90 || pos.Y != 10 {
			t.Errorf("期待値 (90, 10), 実際の値 (%v, %v)", pos.X, pos.Y)
		}
	})

	t.Run("範囲内の座標はそのまま返ること", func(t *testing.T) {
		runner := newScriptRunner(t, &fakeTextModel{response: `{"x": 35, "y": 22}`})
		pos := runner.DetectBubblePosition(context.Background(), spec)
		if pos.X != 35 || pos.Y != 22 {
			t.Errorf("期待値 (35, 22), 実際の値 (%v, %v)", pos.X, pos.Y)
		}
	})

	t.Run("失敗時はデフォルト位置を返すこと", func(t *testing.T) {
		runner := newScriptRunner(t, &fakeTextModel{err: errors.New("quota")})
		pos := runner.DetectBubblePosition(context.Background(), spec)
		if pos.X != 50 || pos.Y != 20 {
			t.Errorf("期待値 (50, 20), 実際の値 (%v, %v)", pos.X, pos.Y)
		}
	})
}
