package db

import (
	"context"
)

const addQuestion = `
INSERT INTO questions (id, question, answer, context, trace)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, question, answer, context, trace, created_at
`

type AddQuestionParams struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Context  string `json:"context"`
	Trace    []byte `json:"trace"`
}

func (q *Queries) AddQuestion(ctx context.Context, arg AddQuestionParams) (Question, error) {
	row := q.db.QueryRow(ctx, addQuestion,
		arg.ID,
		arg.Question,
		arg.Answer,
		arg.Context,
		arg.Trace,
	)
	var i Question
	err := row.Scan(
		&i.ID,
		&i.Question,
		&i.Answer,
		&i.Context,
		&i.Trace,
		&i.CreatedAt,
	)
	return i, err
}

const listQuestions = `
SELECT id, question, answer, context, trace, created_at
FROM questions
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`

type ListQuestionsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListQuestions(ctx context.Context, arg ListQuestionsParams) ([]Question, error) {
	rows, err := q.db.Query(ctx, listQuestions, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Question{}
	for rows.Next() {
		var i Question
		if err := rows.Scan(
			&i.ID,
			&i.Question,
			&i.Answer,
			&i.Context,
			&i.Trace,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
