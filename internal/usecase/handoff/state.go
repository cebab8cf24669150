package handoff

import "fmt"

// Stage is a state of the analysis run
type Stage string

const (
	StageIngested     Stage = "INGESTED"
	StageContextBuilt Stage = "CONTEXT_BUILT"
	StageExtracted    Stage = "EXTRACTED"
	StageValidated    Stage = "VALIDATED"
	StageReasoned     Stage = "REASONED"
	StageScored       Stage = "SCORED"
	StageNarrated     Stage = "NARRATED"
	StageComplete     Stage = "COMPLETE"
	StageFailed       Stage = "FAILED"
)

var stageOrder = []Stage{
	StageIngested,
	StageContextBuilt,
	StageExtracted,
	StageValidated,
	StageReasoned,
	StageScored,
	StageNarrated,
	StageComplete,
}

// runState walks the stages strictly in order; FAILED and COMPLETE are terminal
type runState struct {
	current Stage
	history []Stage
}

func newRunState() *runState {
	return &runState{current: StageIngested, history: []Stage{StageIngested}}
}

func (s *runState) advance(next Stage) error {
	if s.terminal() {
		return fmt.Errorf("run already %s", s.current)
	}
	want := successor(s.current)
	if next != want {
		return fmt.Errorf("illegal transition %s -> %s", s.current, next)
	}
	s.current = next
	s.history = append(s.history, next)
	return nil
}

// fail moves the run to FAILED, remembering the stage it failed in
func (s *runState) fail(err error) *PipelineError {
	at := s.current
	s.current = StageFailed
	s.history = append(s.history, StageFailed)
	return &PipelineError{Stage: at, Err: err}
}

func (s *runState) terminal() bool {
	return s.current == StageComplete || s.current == StageFailed
}

func successor(st Stage) Stage {
	for i, s := range stageOrder {
		if s == st && i+1 < len(stageOrder) {
			return stageOrder[i+1]
		}
	}
	return ""
}
