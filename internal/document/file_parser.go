package document

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	apperrors "github.com/aihub/docstore-go/internal/errors"
	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// FileParser 文件解析器接口
type FileParser interface {
	Parse(reader io.Reader, filename string) (string, error)
	Supports(filename string) bool
}

// TextParser 文本文件解析器
type TextParser struct{}

func (p *TextParser) Supports(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".txt"
}

func (p *TextParser) Parse(reader io.Reader, filename string) (string, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("读取文件失败: %w", err)
	}
	// 非法UTF-8序列替换为占位符而不是报错
	return strings.ToValidUTF8(string(content), "�"), nil
}

// PDFParser PDF文件解析器
type PDFParser struct{}

func (p *PDFParser) Supports(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".pdf"
}

func (p *PDFParser) Parse(reader io.Reader, filename string) (string, error) {
	pdfBytes, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("读取PDF文件失败: %w", err)
	}

	pdfReader, err := model.NewPdfReader(bytes.NewReader(pdfBytes))
	if err != nil {
		return "", fmt.Errorf("解析PDF失败: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("获取PDF页数失败: %w", err)
	}

	// 逐页提取，提取失败的页贡献空字符串而不是报错
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		text := ""
		if page, err := pdfReader.GetPage(i); err == nil {
			if ex, err := extractor.New(page); err == nil {
				if pageText, err := ex.ExtractText(); err == nil {
					text = pageText
				}
			}
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n"), nil
}

// WordParser Word文档解析器（仅支持.docx格式）
type WordParser struct{}

func (p *WordParser) Supports(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".docx"
}

func (p *WordParser) Parse(reader io.Reader, filename string) (string, error) {
	docBytes, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("读取Word文件失败: %w", err)
	}

	// 使用bytes.Reader实现ReaderAt接口
	readerAt := bytes.NewReader(docBytes)
	doc, err := document.Read(readerAt, int64(len(docBytes)))
	if err != nil {
		return "", fmt.Errorf("解析Word文档失败: %w", err)
	}
	defer doc.Close()

	// 按段落提取文本，段落之间用换行分隔
	paragraphs := make([]string, 0, len(doc.Paragraphs()))
	for _, para := range doc.Paragraphs() {
		var textBuilder strings.Builder
		for _, run := range para.Runs() {
			textBuilder.WriteString(run.Text())
		}
		paragraphs = append(paragraphs, textBuilder.String())
	}

	return strings.Join(paragraphs, "\n"), nil
}

// FileParserManager 文件解析器管理器
type FileParserManager struct {
	parsers []FileParser
}

// NewFileParserManager 创建文件解析器管理器
func NewFileParserManager() *FileParserManager {
	return &FileParserManager{
		parsers: []FileParser{
			&PDFParser{},
			&WordParser{},
			&TextParser{},
		},
	}
}

// ParseFile 解析文件并校验内容非空
func (m *FileParserManager) ParseFile(reader io.Reader, filename string) (string, error) {
	for _, parser := range m.parsers {
		if !parser.Supports(filename) {
			continue
		}
		text, err := parser.Parse(reader, filename)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", apperrors.NewEmptyContentError()
		}
		return text, nil
	}
	return "", apperrors.NewUnsupportedFormatError(filepath.Ext(filename))
}

// Supports 检查文件格式是否受支持
func (m *FileParserManager) Supports(filename string) bool {
	for _, parser := range m.parsers {
		if parser.Supports(filename) {
			return true
		}
	}
	return false
}

// SupportedFormats 获取支持的文件格式
func (m *FileParserManager) SupportedFormats() []string {
	return []string{".txt", ".pdf", ".docx"}
}
