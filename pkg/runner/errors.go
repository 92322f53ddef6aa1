package runner

import "fmt"

// ScriptGenerationError は台本生成の失敗（モデル呼び出しまたは応答パースの失敗）です。
// 実行中の生成全体を中断させる致命的なエラーで、パネルは一切作られません。
type ScriptGenerationError struct {
	Err error
}

func (e *ScriptGenerationError) Error() string {
	return fmt.Sprintf("台本生成に失敗しました: %v", e.Err)
}

func (e *ScriptGenerationError) Unwrap() error {
	return e.Err
}

// ImageGenerationError は、内部リトライを使い切った後のパネル画像生成の失敗です。
// 該当パネルに局所化され、他のパネルの生成は継続されます。
type ImageGenerationError struct {
	PanelNumber int
	Attempts    int
	Err         error
}

func (e *ImageGenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("パネル %d の画像生成に %d 回失敗しました: %v", e.PanelNumber, e.Attempts, e.Err)
	}
	return fmt.Sprintf("パネル %d の画像生成に %d 回失敗しました: 画像データが返されませんでした", e.PanelNumber, e.Attempts)
}

func (e *ImageGenerationError) Unwrap() error {
	return e.Err
}
