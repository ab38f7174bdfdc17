package models

import "time"

// FileUpload represents the file_uploads table
type FileUpload struct {
	FileID       int        `gorm:"primaryKey;column:file_id" json:"file_id"`
	OriginalName string     `gorm:"column:original_name" json:"original_name"`
	StoredPath   string     `gorm:"column:stored_path" json:"stored_path"`
	FolderType   string     `gorm:"column:folder_type" json:"folder_type"`
	FileSize     int64      `gorm:"column:file_size" json:"file_size"`
	MimeType     string     `gorm:"column:mime_type" json:"mime_type"`
	IsPublic     bool       `gorm:"column:is_public" json:"is_public"`
	UploadedBy   int        `gorm:"column:uploaded_by" json:"uploaded_by"`
	UploadedAt   time.Time  `gorm:"column:uploaded_at" json:"uploaded_at"`
	CreateAt     time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt     time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Uploader User `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
}

// Document kinds attachable to a submission.
const (
	DocumentPaper            = "paper"
	DocumentRevisedPaper     = "revised_paper"
	DocumentProceedingsPaper = "proceedings_paper"
	DocumentSupplementary    = "supplementary"
)

// SubmissionDocument links an uploaded file to a submission with its kind.
type SubmissionDocument struct {
	DocumentID       int        `gorm:"primaryKey;column:document_id" json:"document_id"`
	SubmissionID     int        `gorm:"column:submission_id" json:"submission_id"`
	FileID           int        `gorm:"column:file_id" json:"file_id"`
	DocumentType     string     `gorm:"column:document_type" json:"document_type"`
	OriginalFilename string     `gorm:"column:original_filename" json:"original_filename"`
	StoredFilename   string     `gorm:"column:stored_filename" json:"stored_filename"`
	FileType         string     `gorm:"column:file_type" json:"file_type"`
	UploadedBy       int        `gorm:"column:uploaded_by" json:"uploaded_by"`
	UploadedAt       *time.Time `gorm:"column:uploaded_at" json:"uploaded_at"`
	CreateAt         *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt         *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt         *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	File       FileUpload `gorm:"foreignKey:FileID" json:"file,omitempty"`
	Submission Submission `gorm:"foreignKey:SubmissionID" json:"submission,omitempty"`
}

// TableName overrides
func (FileUpload) TableName() string {
	return "file_uploads"
}

func (SubmissionDocument) TableName() string {
	return "submission_documents"
}

// IsValidDocumentType reports whether the mime type is an accepted paper
// format.
func (f *FileUpload) IsValidDocumentType() bool {
	validTypes := []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
	for _, validType := range validTypes {
		if f.MimeType == validType {
			return true
		}
	}
	return false
}

func (f *FileUpload) GetFileSizeInMB() float64 {
	return float64(f.FileSize) / (1024 * 1024)
}
