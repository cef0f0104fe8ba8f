package pdf

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
)

// WarningFontFallback is attached to reports rendered without the CJK font.
const WarningFontFallback = "CJK font unavailable; report rendered with Helvetica and Chinese text will not display correctly"

// Result is a rendered report.
type Result struct {
	Data     []byte
	Pages    int
	Warnings []string
}

// Composer renders visit reports.
type Composer struct {
	fonts  FontLoader
	logger *zap.Logger
}

func NewComposer(fonts FontLoader, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{fonts: fonts, logger: logger}
}

// Compose renders the report for record. A missing or broken font degrades the output and
// adds a warning; it never fails the call.
func (c *Composer) Compose(ctx context.Context, record domain.Record) (Result, error) {
	blocks := Assemble(record)

	font := c.loadFont(ctx)
	data, pages, err := render(blocks, font)
	if err != nil && font != nil && errors.Is(err, errFont) {
		c.logger.Warn("Failed to register report font", zap.Error(err))
		font = nil
		data, pages, err = render(blocks, nil)
	}
	if err != nil {
		return Result{}, err
	}

	result := Result{Data: data, Pages: pages}
	if font == nil {
		result.Warnings = append(result.Warnings, WarningFontFallback)
	}
	return result, nil
}

func (c *Composer) loadFont(ctx context.Context) []byte {
	if c.fonts == nil {
		return nil
	}
	font, err := c.fonts.Load(ctx)
	if err != nil {
		c.logger.Warn("Failed to load report font", zap.Error(err))
		return nil
	}
	return font
}

// ReportFileName returns the download name of a visit report.
func ReportFileName(companyName string) string {
	if strings.TrimSpace(companyName) == "" {
		companyName = "未命名"
	}
	return companyName + "_完整訪視報告.pdf"
}
