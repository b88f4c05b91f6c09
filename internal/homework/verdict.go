package homework

import "fmt"

// Verdict is a review outcome code reported by the status API.
type Verdict string

const (
	VerdictApproved  Verdict = "approved"
	VerdictReviewing Verdict = "reviewing"
	VerdictRejected  Verdict = "rejected"
)

var verdictText = map[Verdict]string{
	VerdictApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	VerdictReviewing: "Работа взята на проверку ревьюером.",
	VerdictRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// Text returns the human-readable verdict and whether the code is known.
func (v Verdict) Text() (string, bool) {
	t, ok := verdictText[v]
	return t, ok
}

// Verdicts lists the known codes in a stable order.
func Verdicts() []Verdict {
	return []Verdict{VerdictApproved, VerdictReviewing, VerdictRejected}
}

const (
	// NoNewStatuses is sent when the API reports no submissions in the window.
	NoNewStatuses = "Нет новых статусов"

	failurePrefix = "Сбой в работе программы: "
)

// StatusChangedMessage formats the notification for a submission.
func StatusChangedMessage(name, verdictText string) string {
	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", name, verdictText)
}

// FailureMessage formats the chat report for a failed cycle.
func FailureMessage(err error) string {
	if err == nil {
		return failurePrefix + "unknown error"
	}
	return failurePrefix + err.Error()
}
