package utils

import (
	"errors"

	"github.com/butcherthacker/FareShare/services"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

type PageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

func JSONPage(ctx iris.Context, data interface{}, page, perPage int, total int64) {
	totalPages := int64(0)
	if perPage > 0 {
		totalPages = (total + int64(perPage) - 1) / int64(perPage)
	}
	ctx.JSON(iris.Map{
		"data":  data,
		"meta":  PageMeta{Page: page, PerPage: perPage, Total: total},
		"links": iris.Map{"total_pages": totalPages},
	})
}

func CreateError(statusCode int, title string, detail string, ctx iris.Context) {
	ctx.StopWithJSON(statusCode, ErrorOutput{Title: title, Detail: detail, Status: statusCode})
}

func CreateInternalServerError(ctx iris.Context) {
	CreateError(
		iris.StatusInternalServerError,
		"Internal Server Error",
		"An unexpected error occurred, please try again later.",
		ctx)
}

func CreateNotFound(ctx iris.Context) {
	CreateError(iris.StatusNotFound, "Not Found", "Resource not found.", ctx)
}

func CreateEmailAlreadyRegistered(ctx iris.Context) {
	CreateError(
		iris.StatusConflict,
		"Conflict",
		"Email already registered.",
		ctx)
}

func HandleValidationErrors(err error, ctx iris.Context) {
	if errs, ok := err.(validator.ValidationErrors); ok {
		validationErrors := make([]ValidationErrorOutput, 0, len(errs))
		for _, validationErr := range errs {
			validationErrors = append(validationErrors, ValidationErrorOutput{
				Field: validationErr.Field(),
				Tag:   validationErr.Tag(),
				Value: validationErr.Param(),
			})
		}
		ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{
			"title":            "Validation Error",
			"status":           iris.StatusBadRequest,
			"validationErrors": validationErrors,
		})
		return
	}
	CreateInternalServerError(ctx)
}

// HandleServiceError maps a business error from the services package to its
// HTTP status. Anything that is not a *services.Error is a 500.
func HandleServiceError(err error, ctx iris.Context) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		CreateInternalServerError(ctx)
		return
	}

	switch svcErr.Kind {
	case services.KindValidation:
		CreateError(iris.StatusBadRequest, "Validation Error", svcErr.Message, ctx)
	case services.KindNotFound:
		CreateError(iris.StatusNotFound, "Not Found", svcErr.Message, ctx)
	case services.KindPermission:
		CreateError(iris.StatusForbidden, "Forbidden", svcErr.Message, ctx)
	case services.KindInvalidState:
		CreateError(iris.StatusBadRequest, "Invalid State", svcErr.Message, ctx)
	case services.KindConflict:
		CreateError(iris.StatusConflict, "Conflict", svcErr.Message, ctx)
	default:
		CreateInternalServerError(ctx)
	}
}

type ErrorOutput struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

type ValidationErrorOutput struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Value string `json:"value"`
}
