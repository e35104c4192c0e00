package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/qa-forum/internal/answer"
	"github.com/evcraddock/qa-forum/internal/question"
	"github.com/evcraddock/qa-forum/internal/reputation"
)

func newReputationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reputation",
		Short: "Inspect and recalculate question reputation",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "recalc <question-id>",
			Short: "Recalculate a question's reputation now",
			Long:  "Run the reputation recalculation for one question synchronously and record it in the job log.",
			Args:  cobra.ExactArgs(1),
			RunE:  runReputationRecalc,
		},
		&cobra.Command{
			Use:   "jobs <question-id>",
			Short: "List recorded reputation jobs for a question",
			Args:  cobra.ExactArgs(1),
			RunE:  runReputationJobs,
		},
	)

	return cmd
}

type recalcResult struct {
	JobID      string `json:"job_id"`
	QuestionID int64  `json:"question_id"`
	Status     string `json:"status"`
	Reputation int64  `json:"reputation"`
}

func runReputationRecalc(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "question")
	if err != nil {
		return err
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	ctx := cmd.Context()
	questions := question.NewRepository(database)
	calc := reputation.NewScoreCalculator(answer.NewRepository(database), questions)
	worker := reputation.NewWorker(nil, questions, calc, reputation.NewJobLog(database))

	job := reputation.NewJob(id, reputation.ReasonManual)
	status := worker.Handle(ctx, job)
	if status == reputation.StatusSkipped {
		return fmt.Errorf("question %d: %w", id, question.ErrNotFound)
	}
	if status == reputation.StatusFailed {
		return fmt.Errorf("recalculating reputation for question %d failed; see `qa reputation jobs %d`", id, id)
	}

	q, err := questions.GetByID(ctx, id)
	if err != nil {
		return err
	}

	res := recalcResult{JobID: job.ID, QuestionID: id, Status: status, Reputation: q.Reputation}
	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, res)
	}
	fmt.Fprintf(out, "Question #%d reputation: %d\n", id, q.Reputation)
	return nil
}

func runReputationJobs(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "question")
	if err != nil {
		return err
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	records, err := reputation.NewJobLog(database).ListByQuestionID(cmd.Context(), id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), records)
	}
	return printJobList(cmd.OutOrStdout(), records)
}
