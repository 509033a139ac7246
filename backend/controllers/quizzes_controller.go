package controllers

import (
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type QuizzesController struct {
	Quizzes *services.QuizService
}

func NewQuizzesController(svc *services.Services) *QuizzesController {
	return &QuizzesController{Quizzes: svc.Quizzes}
}

// SubmitAttemptRequest maps question ids to the chosen answer.
type SubmitAttemptRequest struct {
	Answers map[uint]string `json:"answers" validate:"required"`
}

// CreateQuiz godoc
// @Summary Create the quiz of a course
// @Description One quiz per course. Passing score defaults to 70.
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body services.QuizInput true "Quiz with questions"
// @Success 201 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes [post]
func (qc *QuizzesController) CreateQuiz(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}

	var input services.QuizInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	quiz, err := qc.Quizzes.Create(c.UserContext(), caller, input)
	if err != nil {
		return err
	}
	return utils.Created(c, quiz)
}

// GetQuiz godoc
// @Summary Get a quiz
// @Description Answer keys are only returned to the course instructor
// @Tags quizzes
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{id} [get]
func (qc *QuizzesController) GetQuiz(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	quiz, err := qc.Quizzes.Get(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, quiz)
}

// AddQuestion godoc
// @Summary Add a question to a quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param question body services.QuestionInput true "Question"
// @Success 201 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{id}/questions [post]
func (qc *QuizzesController) AddQuestion(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input services.QuestionInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	question, err := qc.Quizzes.AddQuestion(c.UserContext(), caller, id, input)
	if err != nil {
		return err
	}
	return utils.Created(c, question)
}

// SubmitAttempt godoc
// @Summary Submit a quiz attempt
// @Description Scored on the server. The latest attempt decides whether the quiz counts as passed.
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param attempt body SubmitAttemptRequest true "Answers by question id"
// @Success 201 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{id}/attempt [post]
func (qc *QuizzesController) SubmitAttempt(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input SubmitAttemptRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}

	res, err := qc.Quizzes.Submit(c.UserContext(), caller, id, input.Answers)
	if err != nil {
		return err
	}
	return utils.Created(c, res)
}

// GetHistory godoc
// @Summary The caller's attempts at a quiz
// @Tags quizzes
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /quizzes/{id}/history [get]
func (qc *QuizzesController) GetHistory(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	history, err := qc.Quizzes.History(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, history)
}
