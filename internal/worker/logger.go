package worker

import "github.com/MeowExort/pw-hub-relics-backend/pkg/contextx"

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals
