package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/httpx/reply"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/httpx/req"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/logx"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/rest"
)

// MaxBodyBytes ограничивает размер тела запроса на разбор.
const MaxBodyBytes = 4 << 20

type ingestQueue interface {
	Enqueue(ctx context.Context, req entity.ParseRequest) error
	Len() int
}

type queueLength interface {
	Len() int
}

type RelicServer struct {
	ingest ingestQueue
	notify queueLength
	now    func() time.Time
}

func NewRelicServer(ingest ingestQueue, notify queueLength) RelicServer {
	return RelicServer{
		ingest: ingest,
		notify: notify,
		now:    time.Now,
	}
}

// postV1RelicsParse ставит пакет в очередь разбора. При заполненной очереди
// запрос ждёт до отмены своего контекста.
func (s RelicServer) postV1RelicsParse(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	var request rest.ParseRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	parseRequest, err := newDomainParseRequest(request, s.now())
	if err != nil {
		return fmt.Errorf("newDomainParseRequest: %w", err)
	}

	ctx := r.Context()

	if err = s.ingest.Enqueue(ctx, parseRequest); err != nil {
		return fmt.Errorf("ingestQueue.Enqueue: %w", err)
	}

	logger(ctx).Debug("shop packet accepted",
		slog.String(logx.FieldServerKey, parseRequest.ServerKey),
		slog.Int(logx.FieldPayloadSize, len(parseRequest.Payload)),
	)

	reply.Accepted(ctx, w, rest.Accepted{Message: "accepted"})

	return nil
}

func (s RelicServer) getV1RelicsQueue(w http.ResponseWriter, r *http.Request) error {
	notify := 0
	if s.notify != nil {
		notify = s.notify.Len()
	}

	reply.JSON(r.Context(), w, http.StatusOK, newRESTQueueStats(s.ingest.Len(), notify))

	return nil
}
