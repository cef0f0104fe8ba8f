package common

const (
	// MaxRecordRequestBody limits JSON bodies carrying a checklist record.
	MaxRecordRequestBody = 1 << 20
	// MaxSmallRequestBody limits login and approval payloads.
	MaxSmallRequestBody = 4 << 10

	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// HeaderReportWarning carries composer warnings next to a rendered report.
	HeaderReportWarning = "X-Report-Warning"
)
