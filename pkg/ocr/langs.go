package ocr

import "strings"

// tesseractLangs maps PaddleOCR language codes to Tesseract traineddata names.
var tesseractLangs = map[string]string{
	"ch":          "chi_sim+eng",
	"chinese_cht": "chi_tra+eng",
	"en":          "eng",
	"japan":       "jpn+eng",
	"korean":      "kor+eng",
	"french":      "fra",
	"german":      "deu",
	"it":          "ita",
	"es":          "spa",
	"pt":          "por",
	"ru":          "rus",
	"ar":          "ara",
}

// documentAILangs maps PaddleOCR language codes to BCP-47 hints.
var documentAILangs = map[string]string{
	"ch":          "zh",
	"chinese_cht": "zh-Hant",
	"en":          "en",
	"japan":       "ja",
	"korean":      "ko",
	"french":      "fr",
	"german":      "de",
}

// TesseractLanguages returns the Tesseract languages for code. Unknown codes
// are passed through so that native names such as "eng+deu" keep working.
func TesseractLanguages(code string, withOSD bool) []string {
	code = strings.TrimSpace(code)
	mapped, ok := tesseractLangs[strings.ToLower(code)]
	if !ok {
		mapped = code
	}
	if mapped == "" {
		mapped = "eng"
	}
	langs := strings.Split(mapped, "+")
	if withOSD {
		langs = append(langs, "osd")
	}
	return langs
}

// DocumentAILanguageHints returns the language hints for code, or nil when
// the code is unknown and Document AI should detect the language itself.
func DocumentAILanguageHints(code string) []string {
	if hint, ok := documentAILangs[strings.ToLower(strings.TrimSpace(code))]; ok {
		return []string{hint}
	}
	return nil
}
