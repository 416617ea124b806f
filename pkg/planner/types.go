package planner

// Action is the per-key sync decision.
type Action string

const (
	ActionSkip           Action = "skip"
	ActionUploadNew      Action = "upload-new"
	ActionUploadChanged  Action = "upload-changed"
	ActionCreateRedirect Action = "create-redirect"
)

// LocalFile is an upload candidate after key mapping.
type LocalFile struct {
	Key  string // full object key, prefix included
	Path string // absolute local path
	Size int64
}

// Item is one planned operation, consumed by the executor.
type Item struct {
	Action    Action
	Key       string
	LocalPath string
	Size      int64

	// Hash is the local content hash, precomputed for every upload so
	// the executor can attach it as object metadata without rereading.
	Hash string

	// RedirectTarget is set only for ActionCreateRedirect.
	RedirectTarget string

	// Reason records why the action was chosen, for logs and dry runs.
	Reason string
}

// CompareResult buckets the local candidates by what the size-only
// comparison could already decide.
type CompareResult struct {
	New           []LocalFile
	SizeMismatch  []LocalFile
	NeedHashCheck []LocalFile
}
