package agent

import (
	"strings"
	"text/template"
)

// Сообщения, которые граф возвращает вместо массива результатов.
const (
	msgInvalidJobData  = "I couldn't analyze the job results because I received invalid data from the search tool."
	msgNoJobs          = "No valid jobs found to analyze."
	msgProfileNotFound = "Error: Your profile file was not found at %s."
	msgProfileInvalid  = "Error: I couldn't read your profile file at %s."
	errorFragment      = "<h2>Error analyzing job: %s</h2><p>An exception occurred during analysis: %v</p>"

	dateLayout = "January 02, 2006"
)

var jobMatchTemplate = template.Must(template.New("job_match").Parse(`Today is {{.Date}}.
You are a career analyst. Compare the candidate PROFILE with the JOB below and write a
self-contained HTML fragment that assesses how well the candidate fits the role.

PROFILE:
{{.Profile}}

JOB:
{{.Job}}

--- MANDATORY RULES ---
1. Output ONLY an HTML fragment. No markdown, no code fences, no <html>, <head> or <body> tags.
2. Start with an <h2> containing the job title and the company name.
3. Give a fit score from 0 to 100 and a one-paragraph justification. A requirement matched by
   an 'Expert' skill weighs more than one matched by an 'Intermediate' skill.
4. List matching skills with the proficiency level taken from the PROFILE, then missing skills
   with a short reason each.
5. State the location, work type (Onsite, Remote or Hybrid) and salary. If a value cannot be
   found, write "Not specified". For Hybrid or Onsite roles add a caution that office presence
   may be required.
6. Summarize the company in one or two sentences using the company description.
7. End with a link to the job posting using the linkedin_url from the JOB.
`))

type jobMatchData struct {
	Date    string
	Profile string
	Job     string
}

func renderJobMatchPrompt(data jobMatchData) (string, error) {
	var b strings.Builder
	if err := jobMatchTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
