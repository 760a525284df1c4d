package reply

import (
	"context"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/MeowExort/pw-hub-relics-backend/pkg/contextx"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/errcodes"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	SupportID string `json:"supportId"`
}

func (e *errorResponse) WithDefaultCode(code errcodes.ErrorCode) {
	if e.Code == "" {
		e.Code = code.String()
	}
}

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

func OK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

func Accepted(ctx context.Context, w http.ResponseWriter, data any) {
	JSON(ctx, w, http.StatusAccepted, data)
}

func JSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger(ctx).Error("json.Encode", logx.Error(err))
	}
}

func Error(ctx context.Context, w http.ResponseWriter, err error) {
	logger(ctx).Error("error", logx.Error(err))

	code := errcodes.Code(err)

	response := errorResponse{
		Code:      code.String(),
		Message:   err.Error(),
		SupportID: supportID(ctx),
	}

	switch code {
	case errcodes.ValidationError, errcodes.TruncatedInput:
		JSON(ctx, w, http.StatusBadRequest, response)
	case errcodes.NotFound, errcodes.UnknownServer:
		JSON(ctx, w, http.StatusNotFound, response)
	case errcodes.QueueFull, errcodes.StoreUnavailable, errcodes.TimeoutExceeded:
		JSON(ctx, w, http.StatusServiceUnavailable, response)
	default:
		response.WithDefaultCode(errcodes.InternalServerError)
		response.Message = http.StatusText(http.StatusInternalServerError)
		JSON(ctx, w, http.StatusInternalServerError, response)
	}
}

func supportID(ctx context.Context) string {
	traceID, err := contextx.TraceIDFromContext(ctx)
	if err != nil {
		return "unsupported"
	}

	return traceID.String()
}
