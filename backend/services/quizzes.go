package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"lms/backend/models"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultPassingScore = 70

type QuestionInput struct {
	Kind          models.QuestionKind `json:"kind" validate:"omitempty,oneof=mcq tf sa"`
	Text          string              `json:"text" validate:"required"`
	Options       []string            `json:"options" validate:"omitempty,dive,required"`
	CorrectAnswer string              `json:"correct_answer" validate:"required"`
	Points        int                 `json:"points" validate:"gte=0"`
	SequenceOrder int                 `json:"order" validate:"gte=0"`
}

type QuizInput struct {
	CourseID     uint            `json:"course_id" validate:"required"`
	Title        string          `json:"title" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=2000"`
	PassingScore *float64        `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	Questions    []QuestionInput `json:"questions" validate:"dive"`
}

// AttemptResult is returned to the student after a submission.
type AttemptResult struct {
	Attempt        models.QuizAttempt `json:"attempt"`
	CorrectAnswers int                `json:"correct_answers"`
	TotalQuestions int                `json:"total_questions"`
	PassingScore   float64            `json:"passing_score"`
	Check          CheckResult        `json:"course"`
}

type AttemptStats struct {
	TotalAttempts  int     `json:"total_attempts"`
	BestScore      float64 `json:"best_score"`
	AverageScore   float64 `json:"average_score"`
	PassedAttempts int     `json:"passed_attempts"`
	LatestPassed   bool    `json:"latest_passed"`
}

type AttemptHistory struct {
	QuizID   uint                 `json:"quiz_id"`
	Attempts []models.QuizAttempt `json:"attempts"`
	Stats    AttemptStats         `json:"stats"`
}

type QuizService struct {
	db       *gorm.DB
	progress *ProgressService
}

func NewQuizService(db *gorm.DB, progress *ProgressService) *QuizService {
	return &QuizService{db: db, progress: progress}
}

// Create attaches the quiz to an owned course. A course has at most one quiz.
func (s *QuizService) Create(ctx context.Context, caller Caller, in QuizInput) (models.Quiz, error) {
	if err := Authorize(caller.Role, OpManageQuiz); err != nil {
		return models.Quiz{}, err
	}

	questions := make([]models.Question, 0, len(in.Questions))
	for i, qi := range in.Questions {
		q, err := buildQuestion(fmt.Sprintf("questions[%d]", i), qi, i+1)
		if err != nil {
			return models.Quiz{}, err
		}
		questions = append(questions, q)
	}

	quiz := models.Quiz{
		CourseID:     in.CourseID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		PassingScore: DefaultPassingScore,
	}
	if in.PassingScore != nil {
		quiz.PassingScore = *in.PassingScore
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedCourse(tx, caller.ID, in.CourseID); err != nil {
			return err
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&quiz)
		if res.Error != nil {
			return errors.Wrap(res.Error, "create quiz")
		}
		if res.RowsAffected == 0 {
			return ErrQuizExists
		}

		for i := range questions {
			questions[i].QuizID = quiz.ID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return errors.Wrap(err, "create questions")
			}
		}
		return nil
	})
	if err != nil {
		return models.Quiz{}, err
	}
	quiz.Questions = questions
	return quiz, nil
}

// AddQuestion appends a question to a quiz of an owned course.
func (s *QuizService) AddQuestion(ctx context.Context, caller Caller, quizID uint, in QuestionInput) (models.Question, error) {
	if err := Authorize(caller.Role, OpManageQuiz); err != nil {
		return models.Question{}, err
	}

	var question models.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quiz models.Quiz
		if err := tx.First(&quiz, quizID).Error; err != nil {
			return notFound(err, ErrQuizNotFound)
		}
		if _, err := ownedCourse(tx, caller.ID, quiz.CourseID); err != nil {
			return err
		}

		order := in.SequenceOrder
		if order == 0 {
			if err := tx.Model(&models.Question{}).
				Where("quiz_id = ?", quiz.ID).
				Select("COALESCE(MAX(sequence_order), 0)").
				Scan(&order).Error; err != nil {
				return errors.Wrap(err, "query question order")
			}
			order++
		}

		var err error
		if question, err = buildQuestion("question", in, order); err != nil {
			return err
		}
		question.QuizID = quiz.ID
		return errors.Wrap(tx.Create(&question).Error, "create question")
	})
	if err != nil {
		return models.Question{}, err
	}
	return question, nil
}

// Get returns the quiz with its questions. Answer keys are only included for
// the owning instructor.
func (s *QuizService) Get(ctx context.Context, caller Caller, quizID uint) (models.Quiz, error) {
	db := s.db.WithContext(ctx)

	var quiz models.Quiz
	if err := db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order, id")
	}).First(&quiz, quizID).Error; err != nil {
		return models.Quiz{}, notFound(err, ErrQuizNotFound)
	}
	if err := canReadCourse(db, caller, quiz.CourseID); err != nil {
		return models.Quiz{}, err
	}

	if caller.Role != models.RoleInstructor {
		for i := range quiz.Questions {
			quiz.Questions[i].CorrectAnswer = ""
		}
	}
	return quiz, nil
}

// Submit scores the answers against the stored key, records a new attempt and
// re-evaluates the course. Every submission is kept.
func (s *QuizService) Submit(ctx context.Context, caller Caller, quizID uint, answers map[uint]string) (AttemptResult, error) {
	if err := Authorize(caller.Role, OpAttemptQuiz); err != nil {
		return AttemptResult{}, err
	}

	var out AttemptResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quiz models.Quiz
		if err := tx.Preload("Questions").First(&quiz, quizID).Error; err != nil {
			return notFound(err, ErrQuizNotFound)
		}
		if err := requireEnrollment(tx, caller.ID, quiz.CourseID); err != nil {
			return err
		}

		score, correct, err := Score(quiz.Questions, answers)
		if err != nil {
			return err
		}

		raw, err := json.Marshal(answers)
		if err != nil {
			return errors.Wrap(err, "encode answers")
		}
		attempt := models.QuizAttempt{
			StudentID:   caller.ID,
			QuizID:      quiz.ID,
			Answers:     datatypes.JSON(raw),
			Score:       score,
			Passed:      score >= quiz.PassingScore,
			SubmittedAt: timeNow(),
		}
		if err := tx.Create(&attempt).Error; err != nil {
			return errors.Wrap(err, "create attempt")
		}

		check, err := s.progress.check(tx, caller.ID, quiz.CourseID)
		if err != nil {
			return err
		}

		out = AttemptResult{
			Attempt:        attempt,
			CorrectAnswers: correct,
			TotalQuestions: len(quiz.Questions),
			PassingScore:   quiz.PassingScore,
			Check:          check,
		}
		return nil
	})
	if err != nil {
		return AttemptResult{}, err
	}
	s.progress.afterCommit(ctx, out.Check)
	return out, nil
}

// History lists the caller's attempts, newest first.
func (s *QuizService) History(ctx context.Context, caller Caller, quizID uint) (AttemptHistory, error) {
	if err := Authorize(caller.Role, OpAttemptQuiz); err != nil {
		return AttemptHistory{}, err
	}
	db := s.db.WithContext(ctx)

	var quiz models.Quiz
	if err := db.Select("id", "course_id").First(&quiz, quizID).Error; err != nil {
		return AttemptHistory{}, notFound(err, ErrQuizNotFound)
	}
	if err := requireEnrollment(db, caller.ID, quiz.CourseID); err != nil {
		return AttemptHistory{}, err
	}

	h := AttemptHistory{QuizID: quiz.ID, Attempts: []models.QuizAttempt{}}
	if err := db.Where("student_id = ? AND quiz_id = ?", caller.ID, quiz.ID).
		Order("submitted_at DESC, id DESC").
		Find(&h.Attempts).Error; err != nil {
		return AttemptHistory{}, errors.Wrap(err, "list attempts")
	}
	h.Stats = attemptStats(h.Attempts)
	return h, nil
}

// Score grades answers keyed by question id. The answers must cover exactly
// the quiz's questions. Points weigh each question; a quiz without points
// scores 0.
func Score(questions []models.Question, answers map[uint]string) (float64, int, error) {
	known := make(map[uint]bool, len(questions))
	var fields []FieldError
	for _, q := range questions {
		known[q.ID] = true
		if _, ok := answers[q.ID]; !ok {
			fields = append(fields, FieldError{
				Field: fmt.Sprintf("answers[%d]", q.ID),
				Error: "missing answer",
			})
		}
	}
	for id := range answers {
		if !known[id] {
			fields = append(fields, FieldError{
				Field: fmt.Sprintf("answers[%d]", id),
				Error: "unknown question",
			})
		}
	}
	if len(fields) > 0 {
		sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
		return 0, 0, NewValidationError(ErrMalformedSubmission, fields...)
	}

	var earned, total, correct int
	for _, q := range questions {
		total += q.Points
		if sameAnswer(answers[q.ID], q.CorrectAnswer) {
			earned += q.Points
			correct++
		}
	}
	if total <= 0 {
		return 0, correct, nil
	}
	return round2(float64(earned) / float64(total) * 100), correct, nil
}

func sameAnswer(given, key string) bool {
	return strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(key))
}

func attemptStats(attempts []models.QuizAttempt) AttemptStats {
	st := AttemptStats{TotalAttempts: len(attempts)}
	if len(attempts) == 0 {
		return st
	}

	var sum float64
	for _, a := range attempts {
		sum += a.Score
		if a.Score > st.BestScore {
			st.BestScore = a.Score
		}
		if a.Passed {
			st.PassedAttempts++
		}
	}
	st.AverageScore = round2(sum / float64(len(attempts)))
	// attempts are newest first
	st.LatestPassed = attempts[0].Passed
	return st
}

// buildQuestion checks the answer key against the question kind.
func buildQuestion(field string, in QuestionInput, order int) (models.Question, error) {
	kind := in.Kind
	if kind == "" {
		kind = models.QuestionMultipleChoice
	}
	points := in.Points
	if points == 0 {
		points = 1
	}
	key := strings.TrimSpace(in.CorrectAnswer)

	q := models.Question{
		Kind:          kind,
		Text:          strings.TrimSpace(in.Text),
		CorrectAnswer: key,
		Points:        points,
		SequenceOrder: order,
	}

	switch kind {
	case models.QuestionMultipleChoice:
		if len(in.Options) < 2 {
			return models.Question{}, NewValidationError(nil, FieldError{
				Field: field + ".options",
				Error: "a multiple choice question needs at least 2 options",
			})
		}
		found := false
		for _, o := range in.Options {
			if sameAnswer(o, key) {
				found = true
				break
			}
		}
		if !found {
			return models.Question{}, NewValidationError(nil, FieldError{
				Field: field + ".correct_answer",
				Error: "correct_answer must be one of the options",
			})
		}
	case models.QuestionTrueFalse:
		key = strings.ToLower(key)
		if key != "true" && key != "false" {
			return models.Question{}, NewValidationError(nil, FieldError{
				Field: field + ".correct_answer",
				Error: "correct_answer must be true or false",
			})
		}
		q.CorrectAnswer = key
		in.Options = []string{"true", "false"}
	}

	if len(in.Options) > 0 {
		raw, err := json.Marshal(in.Options)
		if err != nil {
			return models.Question{}, errors.Wrap(err, "encode options")
		}
		q.Options = datatypes.JSON(raw)
	}
	return q, nil
}
