package importer

// UploadState is the state of the upload widget a batch drives.
type UploadState string

const (
	StateSelectFile UploadState = "SELECT_FILE"
	StateLoading    UploadState = "LOADING"
	StateSucceeded  UploadState = "UPLOAD_SUCCESSED"
	StateFailed     UploadState = "UPLOAD_FAILED"
)

// Stages reported through Progress.
const (
	StageReading    = "Reading file..."
	StageValidating = "Validating XML..."
	StageChecksum   = "Generating checksum..."
	StageParsing    = "Parsing nodeset..."
	StageCompleted  = "Completed"
)

// Progress is the transient progress of the file being processed.
type Progress struct {
	FileName string `json:"file_name"`
	Stage    string `json:"stage"`
	Value    int    `json:"value"`
}

// ProgressFunc receives progress updates. It is called synchronously from
// Import and may be called after the caller's display has moved on.
type ProgressFunc func(Progress)
