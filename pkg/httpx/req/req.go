package req

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/MeowExort/pw-hub-relics-backend/pkg/errcodes"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary         //nolint:gochecknoglobals // skip
	validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // skip
)

// InvalidArgumentError is returned when a request body cannot be decoded or
// fails validation.
type InvalidArgumentError struct {
	Description string
	cause       error
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Description, e.cause)
}

func (e *InvalidArgumentError) Unwrap() error {
	return e.cause
}

func (e *InvalidArgumentError) ErrorCode() errcodes.ErrorCode {
	return errcodes.ValidationError
}

func Read(r *http.Request, dest any) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return &InvalidArgumentError{
			Description: "Invalid JSON",
			cause:       fmt.Errorf("json.Decode: %w", err),
		}
	}

	if err := validate.StructCtx(r.Context(), dest); err != nil {
		return &InvalidArgumentError{
			Description: "validation error",
			cause:       err,
		}
	}

	return nil
}
