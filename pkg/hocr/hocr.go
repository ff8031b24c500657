// Package hocr implements parsing and generation of hOCR data, the HTML-based
// format OCR engines use to report recognized text together with its layout.
//
// The object model is deliberately flat: a document holds pages, a page holds
// text lines and a line holds words. Intermediate containers such as
// ocr_carea and ocr_par are walked through while parsing but not kept, since
// the rest of ocrbatch only works at line granularity.
//
// Main Functions:
//
// - Parse: parses hOCR HTML into the object model
// - Generate: renders the object model as an hOCR document
package hocr
