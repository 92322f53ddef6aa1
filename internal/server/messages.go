package server

import "ap-comic-press/pkg/domain"

// ユーザー向けエラーメッセージの定義なのだ。API は UI にそのまま出せる文言を返す。
var uiMessages = map[domain.Language]map[string]string{
	domain.LanguagePolish: {
		"busy":            "Inna generacja jest w toku. Poczekaj na jej zakończenie.",
		"invalid_request": "Nieprawidłowe żądanie.",
		"script_failed":   "Błąd generowania scenariusza.",
		"image_failed":    "Błąd generowania obrazu.",
		"no_project":      "Brak komiksu w bieżącej sesji.",
		"panel_not_found": "Nie znaleziono panelu.",
		"save_failed":     "Błąd zapisu do chmury.",
		"load_failed":     "Błąd wczytywania komiksu.",
		"pdf_failed":      "Błąd generowania PDF.",
		"zip_failed":      "Błąd tworzenia archiwum ZIP.",
	},
	domain.LanguageEnglish: {
		"busy":            "Another generation is in progress. Please wait for it to finish.",
		"invalid_request": "Invalid request.",
		"script_failed":   "Script generation failed.",
		"image_failed":    "Image generation failed.",
		"no_project":      "No comic in the current session.",
		"panel_not_found": "Panel not found.",
		"save_failed":     "Cloud save failed.",
		"load_failed":     "Failed to load the comic.",
		"pdf_failed":      "PDF generation failed.",
		"zip_failed":      "ZIP archive creation failed.",
	},
}

// message はキーに対応する UI 文言を返します。未知の言語はポーランド語に倒します。
func message(lang domain.Language, key string) string {
	table, ok := uiMessages[lang]
	if !ok {
		table = uiMessages[domain.LanguagePolish]
	}
	if msg, ok := table[key]; ok {
		return msg
	}
	return key
}
