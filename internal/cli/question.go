package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/qa-forum/internal/answer"
	"github.com/evcraddock/qa-forum/internal/question"
)

func newQuestionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Ask and browse questions",
	}

	var author string
	add := &cobra.Command{
		Use:   "add <title> [body]",
		Short: "Ask a question",
		Long:  "Ask a question. The author defaults to the CLI config's author.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuestionAdd(cmd, args, author)
		},
	}
	add.Flags().StringVar(&author, "author", "", "author email (default: config author)")

	cmd.AddCommand(
		add,
		&cobra.Command{
			Use:   "list",
			Short: "List questions, newest first",
			Args:  cobra.NoArgs,
			RunE:  runQuestionList,
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a question and its answers",
			Args:  cobra.ExactArgs(1),
			RunE:  runQuestionShow,
		},
	)

	return cmd
}

func runQuestionAdd(cmd *cobra.Command, args []string, author string) error {
	if author == "" {
		author = getAuthor()
	}
	author = strings.ToLower(strings.TrimSpace(author))
	if author == "" {
		return errors.New("an author is required: pass --author or run `qa config set author <email>`")
	}

	var body string
	if len(args) > 1 {
		body = args[1]
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	q, err := question.NewRepository(database).Create(cmd.Context(), args[0], body, author)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, q)
	}
	fmt.Fprintf(out, "Question #%d added.\n", q.ID)
	return nil
}

func runQuestionList(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	questions, err := question.NewRepository(database).List(cmd.Context())
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), questions)
	}
	return printQuestionTable(cmd.OutOrStdout(), questions)
}

type questionDetail struct {
	Question *question.Question `json:"question"`
	Answers  []*answer.Answer   `json:"answers"`
}

func runQuestionShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "question")
	if err != nil {
		return err
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	q, err := question.NewRepository(database).GetByID(cmd.Context(), id)
	if err != nil {
		return err
	}
	answers, err := answer.NewRepository(database).ListByQuestionID(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, questionDetail{Question: q, Answers: answers})
	}

	printQuestionSummary(out, q)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Answers (%d):\n", len(answers))
	printAnswerList(out, answers, q.BestAnswerID)
	return nil
}

// parseID parses a positive record ID argument.
func parseID(arg, kind string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", kind, arg)
	}
	return id, nil
}
