package pipeline

import "errors"

var (
	// ErrGenerationInProgress は別の生成処理が走っている間に
	// 新しい生成を要求した場合に返されます。
	ErrGenerationInProgress = errors.New("another generation is already in progress")

	// ErrNoProject は脚本が存在しない状態で脚本を前提とする操作を
	// 呼び出した場合に返されます。
	ErrNoProject = errors.New("no comic script in the current session")

	// ErrPanelNotFound は指定番号のパネルが現在の脚本に無い場合に返されます。
	ErrPanelNotFound = errors.New("panel not found in the current script")
)
