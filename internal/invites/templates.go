package invites

import (
	"fmt"

	"github.com/hireflow/hireflow/internal/store"
)

func inviteBody(details *store.InviteDetails, link string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Congratulations!</h1>
  <p>Dear %s,</p>
  <p>Great news! Your application for the <strong>%s</strong> position at <strong>%s</strong> has been shortlisted.</p>
  <p>We're excited to invite you to the next stage: an AI-proctored virtual interview.</p>
  <p><a href="%s">Start Interview</a></p>
  <p><strong>Important:</strong> the interview is proctored and requires your full attention. Switching browser tabs is detected.</p>
  <p>Best of luck!<br><strong>The %s Hiring Team</strong></p>
</div>`,
		details.CandidateName, details.JobTitle, details.CompanyName, link, details.CompanyName)
}

func acceptBody(details *store.InviteDetails) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>You're Moving Forward!</h1>
  <p>Dear %s,</p>
  <p>Congratulations! We're impressed with your interview performance for the <strong>%s</strong> position.</p>
  <p>We would like to invite you to our office for the next round of interviews. Our team will contact you shortly with the details.</p>
  <p>Looking forward to meeting you!<br><strong>The %s Hiring Team</strong></p>
</div>`,
		details.CandidateName, details.JobTitle, details.CompanyName)
}
