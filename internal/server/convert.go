package server

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/errcodes"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/rest"
)

func newDomainParseRequest(request rest.ParseRequest, receivedAt time.Time) (entity.ParseRequest, error) {
	payload, err := base64.StdEncoding.DecodeString(request.Payload)
	if err != nil {
		return entity.ParseRequest{}, domain.WrapError(
			fmt.Errorf("base64.DecodeString: %w", err),
			errcodes.ValidationError,
			"payload is not valid base64",
		)
	}

	return entity.ParseRequest{
		ServerKey:  strings.ToLower(strings.TrimSpace(request.Server)),
		Payload:    payload,
		ReceivedAt: receivedAt,
	}, nil
}

func newRESTQueueStats(ingest, notify int) rest.QueueStats {
	return rest.QueueStats{
		Ingest: ingest,
		Notify: notify,
	}
}
