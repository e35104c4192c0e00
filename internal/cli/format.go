package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/evcraddock/qa-forum/internal/answer"
	"github.com/evcraddock/qa-forum/internal/question"
	"github.com/evcraddock/qa-forum/internal/reputation"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printQuestionSummary prints a single question in text format.
func printQuestionSummary(w io.Writer, q *question.Question) {
	fmt.Fprintf(w, "Question #%d\n", q.ID)
	fmt.Fprintf(w, "  Title:       %s\n", q.Title)
	fmt.Fprintf(w, "  Author:      %s\n", q.Author)
	fmt.Fprintf(w, "  Reputation:  %d\n", q.Reputation)
	if q.BestAnswerID != nil {
		fmt.Fprintf(w, "  Best answer: #%d\n", *q.BestAnswerID)
	}
	fmt.Fprintf(w, "  Asked:       %s\n", q.CreatedAt.Format("2006-01-02 15:04"))
	if q.Body != "" {
		fmt.Fprintf(w, "\n  %s\n", q.Body)
	}
}

// printQuestionTable prints a list of questions as a formatted table.
func printQuestionTable(out io.Writer, questions []*question.Question) error {
	if len(questions) == 0 {
		fmt.Fprintln(out, "No questions found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tREPUTATION"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t-----\t------\t----------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, q := range questions {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%d\n",
			q.ID, truncate(q.Title, 50), q.Author, q.Reputation); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(out, "\nTotal: %d questions\n", len(questions))
	return nil
}

// printAnswerList prints answers in text format.
func printAnswerList(w io.Writer, answers []*answer.Answer, best *int64) {
	if len(answers) == 0 {
		fmt.Fprintln(w, "No answers.")
		return
	}

	for _, a := range answers {
		marker := ""
		if best != nil && *best == a.ID {
			marker = " [best]"
		}
		fmt.Fprintf(w, "[%s] #%d (%s)%s\n  %s\n\n",
			a.CreatedAt.Format("2006-01-02 15:04"), a.ID, a.Author, marker, a.Body)
	}
}

// printJobList prints reputation job records in text format.
func printJobList(out io.Writer, records []reputation.JobRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(out, "No reputation jobs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "JOB\tREASON\tSTATUS\tATTEMPTS\tERROR"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.Reason, r.Status, r.Attempts, truncate(r.LastError, 40)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
