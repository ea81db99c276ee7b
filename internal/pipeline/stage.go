package pipeline

// Stage is a step of the planning pipeline.
type Stage int

// Stages in execution order. StageDone and StageFailed are terminal.
const (
	StageAcquire Stage = iota
	StageDetect
	StageSummarize
	StageRecommend
	StageLog
	StageDone
	StageFailed
)

var stageNames = map[Stage]string{
	StageAcquire:   "acquire",
	StageDetect:    "detect",
	StageSummarize: "summarize",
	StageRecommend: "recommend",
	StageLog:       "log",
	StageDone:      "done",
	StageFailed:    "failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further stage follows s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// Steps is the number of non-terminal stages.
const Steps = int(StageDone)

// Transition records one move between stages. Err is set on the move into
// StageFailed, and on StageLog → StageDone when logging failed.
type Transition struct {
	Err  error
	From Stage
	To   Stage
}

// Observer is notified when the pipeline enters a stage.
type Observer func(stage Stage)
