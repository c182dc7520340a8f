package interview

// CallSite names one classifier or generator invocation in the dialogue.
type CallSite string

const (
	SiteIntroReply            CallSite = "generate_contextual_intro_reply"
	SiteAssessIntro           CallSite = "assess_intro_progress"
	SiteShouldExplainRole     CallSite = "should_explain_job_role"
	SiteExplainRole           CallSite = "explain_job_role"
	SiteRoleContinuation      CallSite = "should_continue_after_job_explanation"
	SiteJobQnAFinished        CallSite = "is_job_qna_finished"
	SiteClassifyFollowup      CallSite = "classify_user_followup"
	SiteAnswerJobQuestion     CallSite = "answer_job_related_question"
	SiteIcebreakerQuestion    CallSite = "generate_icebreaker_question"
	SiteAssessIcebreaker      CallSite = "assess_icebreaker_response"
	SiteIntroFollowupQuestion CallSite = "generate_dynamic_question"
	SiteAssessIntroFollowup   CallSite = "assess_followup_response"
	SiteShouldFollowUp        CallSite = "should_follow_up"
	SiteEvaluateResume        CallSite = "evaluate_resume_response"
	SiteResumeFollowup        CallSite = "generate_followup"
	SiteResumeClarify         CallSite = "generate_clarification"
	SiteResumeRedirect        CallSite = "handle_offtopic"
	SiteShouldFollowUpCustom  CallSite = "should_follow_up_custom"
	SiteEvaluateCustom        CallSite = "evaluate_custom_response"
	SiteCustomFollowup        CallSite = "generate_custom_followup"
	SiteCustomClarify         CallSite = "generate_custom_clarification"
	SiteCustomRedirect        CallSite = "handle_custom_offtopic_redirect"
	SiteModelAnswer           CallSite = "generate_model_answer"
	SiteCandidateHasQuestion  CallSite = "assess_candidate_has_question"
	SiteAnswerCandidate       CallSite = "generate_candidate_qna_response"
	SiteRateResponse          CallSite = "analyze_individual_responses"
	SiteFinalSummary          CallSite = "generate_final_summary_review"
)

// Policy is the contract of a call site: the labels it may return and the
// value used whenever the generator fails or answers outside the vocabulary.
// Sites without labels return free text.
type Policy struct {
	Labels  []Label
	Default string
}

// FreeText reports whether the site returns prose rather than a label.
func (p Policy) FreeText() bool { return len(p.Labels) == 0 }

var policies = map[CallSite]Policy{
	SiteIntroReply:            {Default: introPrompt},
	SiteAssessIntro:           {Labels: []Label{LabelContinue, LabelWait, LabelRetry}, Default: string(LabelRetry)},
	SiteShouldExplainRole:     {Labels: yesNo, Default: string(LabelNo)},
	SiteExplainRole:           {Default: "This role is about applying your experience to the problems the team works on every day, and I'm happy to go into detail."},
	SiteRoleContinuation:      {Labels: doneOrMore, Default: string(LabelContinue)},
	SiteJobQnAFinished:        {Labels: doneOrMore, Default: string(LabelContinue)},
	SiteClassifyFollowup:      {Labels: []Label{LabelQuestion, LabelPrompt}, Default: string(LabelPrompt)},
	SiteAnswerJobQuestion:     {Default: "Let me get back to that question in a moment."},
	SiteIcebreakerQuestion:    {Default: "What's a hobby you enjoy during weekends?"},
	SiteAssessIcebreaker:      {Labels: []Label{LabelValid, LabelRetry}, Default: string(LabelRetry)},
	SiteIntroFollowupQuestion: {Default: "Can you share more about what motivates you professionally?"},
	SiteAssessIntroFollowup:   {Labels: []Label{LabelStrong, LabelWeak}, Default: string(LabelWeak)},
	SiteShouldFollowUp:        {Labels: yesNo, Default: string(LabelNo)},
	SiteEvaluateResume:        {Labels: answerGrade, Default: string(LabelConfused)},
	SiteResumeFollowup:        {Default: "Can you explain a bit more?"},
	SiteResumeClarify:         {Default: "Could you share a specific example from your experience?"},
	SiteResumeRedirect:        {Default: "No problem — let's bring it back to your experience."},
	SiteShouldFollowUpCustom:  {Labels: yesNo, Default: string(LabelNo)},
	SiteEvaluateCustom:        {Labels: answerGrade, Default: string(LabelConfused)},
	SiteCustomFollowup:        {Default: "Can you clarify your point with an example?"},
	SiteCustomClarify:         {Default: "Would you like to provide more detail?"},
	SiteCustomRedirect:        {Default: "Let's circle back to the question for clarity."},
	SiteModelAnswer:           {Default: "Here's what a strong answer could look like: explain the key concepts, steps, or examples related to this question."},
	SiteCandidateHasQuestion:  {Labels: yesNo, Default: string(LabelNo)},
	SiteAnswerCandidate:       {Default: "Please go ahead — I'm happy to answer."},
	SiteRateResponse:          {Default: `{"knowledge_rating":5,"emotion":"unknown"}`},
	SiteFinalSummary:          {Default: ""},
}

// PolicyFor returns the policy of a call site.
func PolicyFor(site CallSite) (Policy, bool) {
	p, ok := policies[site]
	return p, ok
}

// CallSites lists every registered site.
func CallSites() []CallSite {
	out := make([]CallSite, 0, len(policies))
	for s := range policies {
		out = append(out, s)
	}
	return out
}
