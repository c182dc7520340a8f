// Package interview implements the interview dialogue: a stage machine that
// sequences the phases of a mock interview, asks the generator to classify
// candidate replies, bounds every sub-dialogue with a retry budget and
// produces the final evaluation.
package interview

import "fmt"

// Stage is one phase of the interview. Exactly one is current at any time.
type Stage string

const (
	StageIntroduction           Stage = "introduction"
	StageExplainJobRole         Stage = "explain_job_role_briefly"
	StageJobQnA                 Stage = "answer_job_related_qna"
	StageIcebreaker             Stage = "icebreaker"
	StageIntroFollowup          Stage = "intro_followup"
	StageResumeDiscussion       Stage = "resume_discussion"
	StageCoreQuestionFollowup   Stage = "core_question_followup"
	StageCustomQuestions        Stage = "custom_questions"
	StageCustomQuestionFollowup Stage = "custom_question_followup"
	StageCandidateQuestions     Stage = "candidate_questions"
	StageWrapup                 Stage = "wrapup_evaluation"
)

// Stages lists every stage in dialogue order.
var Stages = []Stage{
	StageIntroduction,
	StageExplainJobRole,
	StageJobQnA,
	StageIcebreaker,
	StageIntroFollowup,
	StageResumeDiscussion,
	StageCoreQuestionFollowup,
	StageCustomQuestions,
	StageCustomQuestionFollowup,
	StageCandidateQuestions,
	StageWrapup,
}

// Terminal reports whether no transition leaves s.
func (s Stage) Terminal() bool { return s == StageWrapup }

// ParseStage validates a stage name read from storage.
func ParseStage(v string) (Stage, error) {
	for _, s := range Stages {
		if string(s) == v {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", v)
}

// End reasons recorded on the session when it reaches wrapup.
const (
	EndCompleted = "completed"
	EndManual    = "manual_end"
	EndTimeout   = "timeout"
)
