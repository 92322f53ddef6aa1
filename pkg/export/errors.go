package export

import "fmt"

// ExportError は成果物の書き出し失敗を、対象フォーマット付きで表します。
type ExportError struct {
	Format string // "pdf" / "zip" / "page"
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s の書き出しに失敗しました: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
