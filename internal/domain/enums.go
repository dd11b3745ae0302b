package domain

// FileType represents the document types accepted for extraction.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeJPG  FileType = "jpg"
	FileTypePNG  FileType = "png"
	FileTypeTIFF FileType = "tiff"
	FileTypeBMP  FileType = "bmp"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF:  "application/pdf",
	FileTypeJPG:  "image/jpeg",
	FileTypePNG:  "image/png",
	FileTypeTIFF: "image/tiff",
	FileTypeBMP:  "image/bmp",
}

// AllowedContentTypes maps sniffed MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
	"image/tiff":      FileTypeTIFF,
	"image/bmp":       FileTypeBMP,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
	"tif":  FileTypeTIFF,
	"tiff": FileTypeTIFF,
	"bmp":  FileTypeBMP,
}

// WorkflowState is the position of a session in the extract/analyze workflow.
type WorkflowState string

const (
	StateIdle             WorkflowState = "idle"
	StateDocumentSelected WorkflowState = "document_selected"
	StateExtracting       WorkflowState = "extracting"
	StateExtracted        WorkflowState = "extracted"
	StateAnalyzing        WorkflowState = "analyzing"
	StateAnswered         WorkflowState = "answered"
	StateError            WorkflowState = "error"
)

// IsBusy reports whether a remote operation is in progress in this state.
func (s WorkflowState) IsBusy() bool {
	return s == StateExtracting || s == StateAnalyzing
}

// ExportFormat selects the session export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)
