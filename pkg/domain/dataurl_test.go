package domain

import (
	"bytes"
	"testing"
)

func TestDataURLRoundTrip(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	url := EncodeDataURL("image/png", raw)

	mime, data, err := DecodeDataURL(url)
	if err != nil {
		t.Fatalf("デコードに失敗しました: %v", err)
	}
	if mime != "image/png" {
		t.Errorf("期待値 'image/png', 実際の値 '%s'", mime)
	}
	if !bytes.Equal(data, raw) {
		t.Error("復元されたバイト列が一致しません")
	}
}

func TestDecodeDataURL_BareBase64(t *testing.T) {
	// プレフィックスなしの素の base64 も受理する
	mime, data, err := DecodeDataURL("aGVsbG8=")
	if err != nil {
		t.Fatalf("デコードに失敗しました: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("既定の MIME は image/jpeg のはずが '%s' でした", mime)
	}
	if string(data) != "hello" {
		t.Errorf("期待値 'hello', 実際の値 '%s'", string(data))
	}
}

func TestDecodeDataURL_Invalid(t *testing.T) {
	if _, _, err := DecodeDataURL("data:image/png;base64"); err == nil {
		t.Error("カンマを欠く data URL でエラーが発生しませんでした")
	}
	if _, _, err := DecodeDataURL("data:image/png;base64,!!!"); err == nil {
		t.Error("不正な base64 でエラーが発生しませんでした")
	}
}
