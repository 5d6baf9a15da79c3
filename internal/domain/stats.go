package domain

// SinkResult reports how a record batch fared in a sink.
type SinkResult struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// StageStats counts what a pipeline stage kept and dropped.
type StageStats struct {
	Stage   string
	In      int
	Kept    int
	Removed int
}

// NewStageStats derives removal counts from input and output sizes.
func NewStageStats(stage string, in, kept int) StageStats {
	return StageStats{Stage: stage, In: in, Kept: kept, Removed: in - kept}
}

// PlatformResult reports one platform's share of a collection.
type PlatformResult struct {
	Key     string
	Records int
	Err     error
}
