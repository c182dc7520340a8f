package interview

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

// promptData feeds the system instruction templates. Fields unused by a
// template are left empty.
type promptData struct {
	JobTitle       string
	JobDescription string
	Style          string
	Question       string
	Answer         string
	Previous       string
	Evaluations    []string
	Stats          domain.FeedbackStats
	Responses      string
}

const interviewerPersona = `You are a professional interviewer for the role of {{.JobTitle}}.{{if .Style}} Interview style: {{.Style}}.{{end}}`

var promptSources = map[CallSite]string{
	SiteIntroReply: interviewerPersona + `
The candidate is introducing themselves. Reply in one or two friendly sentences and
ask them to tell you more about their background. If you explain the role, end your
reply with the tag [[job_explained]].`,

	SiteAssessIntro: `Decide whether the candidate has introduced themselves well enough to move on.
Reply with exactly one word:
- continue: the candidate shared their background, e.g. "I'm a backend developer with 5 years of Go experience."
- wait: the candidate asked for a moment or is still talking, e.g. "Give me a second."
- retry: the reply is empty, off-topic or too short, e.g. "hi".`,

	SiteShouldExplainRole: `Does the candidate ask about the role or want it explained before continuing?
Reply with exactly one word: yes or no.
Examples: "Can you tell me more about the job first?" -> yes. "Sure, I'm Dana, a data engineer." -> no.`,

	SiteExplainRole: interviewerPersona + `
Explain the role briefly in three or four sentences using the job description below.
Job description:
{{.JobDescription}}`,

	SiteRoleContinuation: `The interviewer explained the role and asked if the candidate has questions.
Reply with exactly one word:
- done: the candidate has no questions and wants to proceed, e.g. "All clear, let's go."
- continue: the candidate asks something or wants more detail, e.g. "What does the team use for deployments?"`,

	SiteJobQnAFinished: `Has the candidate finished asking questions about the role?
Reply with exactly one word: done or continue.`,

	SiteClassifyFollowup: `Classify the candidate's message.
Reply with exactly one word:
- question: it contains an actual question, e.g. "How big is the team?"
- prompt: it only announces a question or is unclear, e.g. "I have a question."`,

	SiteAnswerJobQuestion: interviewerPersona + `
Answer the candidate's question about the role in at most three sentences. Use only the
job description below; say so when it does not cover the question.
Job description:
{{.JobDescription}}`,

	SiteIcebreakerQuestion: interviewerPersona + `
Ask one short, light icebreaker question that is not about work.{{if .Previous}}
Do not repeat this earlier question: {{.Previous}}{{end}}`,

	SiteAssessIcebreaker: `The interviewer asked the icebreaker: "{{.Question}}".
Reply with exactly one word:
- valid: the candidate engaged with the question, e.g. "I like hiking on weekends."
- retry: the reply is empty or unrelated, e.g. "ok".`,

	SiteIntroFollowupQuestion: interviewerPersona + `
Based on the conversation so far, ask one follow-up question about the candidate's
motivation or background.{{if .Previous}} Do not repeat: {{.Previous}}{{end}}`,

	SiteAssessIntroFollowup: `The interviewer asked: "{{.Question}}".
Reply with exactly one word:
- strong: the answer is specific and relevant.
- weak: the answer is vague, very short or unrelated.`,

	SiteShouldFollowUp: `Question: "{{.Question}}"
Answer: "{{.Answer}}"
Is a follow-up question needed to understand the candidate's experience?
Reply with exactly one word: yes or no.`,

	SiteEvaluateResume: `Question: "{{.Question}}"
Answer: "{{.Answer}}"
Classify the answer with exactly one label:
- clear: direct and well explained.
- weak: relevant but shallow.
- confused: the candidate seems unsure or contradicts themselves.
- no_answer: the candidate did not answer, e.g. "I don't know."
- off_topic: the answer is about something else.`,

	SiteResumeFollowup: interviewerPersona + `
The candidate answered "{{.Question}}" with: "{{.Answer}}".
Ask one targeted follow-up question about that answer.`,

	SiteResumeClarify: interviewerPersona + `
The candidate struggled with "{{.Question}}". Rephrase it more simply and ask for a
concrete example.`,

	SiteResumeRedirect: interviewerPersona + `
The candidate drifted off topic while answering "{{.Question}}". Politely steer them
back in one sentence.`,

	SiteShouldFollowUpCustom: `Question: "{{.Question}}"
Answer: "{{.Answer}}"
Would a follow-up help the candidate complete their answer?
Reply with exactly one word: yes or no.`,

	SiteEvaluateCustom: `Question: "{{.Question}}"
Answer: "{{.Answer}}"
Classify the answer with exactly one label:
- clear: direct and well explained.
- weak: relevant but shallow.
- confused: the candidate seems unsure or contradicts themselves.
- no_answer: the candidate did not answer, e.g. "No idea."
- off_topic: the answer is about something else.`,

	SiteCustomFollowup: interviewerPersona + `
The candidate answered "{{.Question}}" with: "{{.Answer}}".
Ask one follow-up that helps them clarify their point with an example.`,

	SiteCustomClarify: interviewerPersona + `
The candidate's answer to "{{.Question}}" was unclear. Ask them for more detail in one
sentence.`,

	SiteCustomRedirect: interviewerPersona + `
The candidate went off topic on "{{.Question}}". Bring them back to the question in
one sentence.`,

	SiteModelAnswer: interviewerPersona + `
The candidate could not answer "{{.Question}}".{{if .Evaluations}} Their attempts were judged: {{range $i, $e := .Evaluations}}{{if $i}}, {{end}}{{$e}}{{end}}.{{end}}
Give a concise model answer in at most five sentences.`,

	SiteCandidateHasQuestion: `Does the candidate's message contain a question for the interviewer?
Reply with exactly one word: yes or no.
Examples: "What does onboarding look like?" -> yes. "I think I'm fine." -> no.`,

	SiteAnswerCandidate: interviewerPersona + `
Answer the candidate's question in at most three sentences.{{if .Previous}} {{.Previous}}{{end}}
Job description:
{{.JobDescription}}`,

	SiteRateResponse: `Rate the candidate's answer.
Question: "{{.Question}}"
Answer: "{{.Answer}}"
Return only JSON: {"knowledge_rating": <integer 1-10>, "emotion": "<confident|nervous|unsure|neutral>"}`,

	SiteFinalSummary: `You are writing the final review of a mock interview for {{.JobTitle}}.
Use only these statistics and responses; do not invent numbers.
Total responses: {{.Stats.TotalResponses}}
Average rating: {{printf "%.1f" .Stats.AverageRating}}
Strong responses: {{.Stats.StrongResponses}}
Weak responses: {{.Stats.WeakResponses}}
Nervous responses: {{.Stats.NervousCount}}
Unsure responses: {{.Stats.UnsureCount}}
Responses:
{{.Responses}}
Return only JSON: {"summary": "...", "key_strengths": ["..."], "improvement_areas": ["..."], "overall_rating": <number 1-10>}`,
}

var prompts = func() map[CallSite]*template.Template {
	out := make(map[CallSite]*template.Template, len(promptSources))
	for site, src := range promptSources {
		out[site] = template.Must(template.New(string(site)).Parse(src))
	}
	return out
}()

func renderPrompt(site CallSite, data promptData) (string, error) {
	tpl, ok := prompts[site]
	if !ok {
		return "", fmt.Errorf("no prompt for %s", site)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", site, err)
	}
	return buf.String(), nil
}
