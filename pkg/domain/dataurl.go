package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeDataURL は生の画像バイト列を data:<mime>;base64,... 形式へ変換します。
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURL は data URL を MIME タイプと生バイト列へ復元します。
// プレフィックスを持たない素の base64 文字列も受け付けます（MIME は image/jpeg とみなします）。
func DecodeDataURL(s string) (mimeType string, data []byte, err error) {
	mimeType = "image/jpeg"
	payload := s

	if strings.HasPrefix(s, "data:") {
		comma := strings.Index(s, ",")
		if comma < 0 {
			return "", nil, fmt.Errorf("data URL の形式が不正です")
		}
		header := s[len("data:"):comma]
		payload = s[comma+1:]
		if semi := strings.Index(header, ";"); semi >= 0 {
			header = header[:semi]
		}
		if header != "" {
			mimeType = header
		}
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("base64 のデコードに失敗しました: %w", err)
	}
	return mimeType, data, nil
}
