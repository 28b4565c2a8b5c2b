package app

import (
	"go.uber.org/fx"

	"github.com/kooko-labs/kooko/internal/cache"
	"github.com/kooko-labs/kooko/internal/config"
	"github.com/kooko-labs/kooko/internal/database"
	"github.com/kooko-labs/kooko/internal/logger"
	"github.com/kooko-labs/kooko/internal/messaging"
	"github.com/kooko-labs/kooko/internal/notifier"
	"github.com/kooko-labs/kooko/internal/observability"
	"github.com/kooko-labs/kooko/internal/queue"
	repositoryorder "github.com/kooko-labs/kooko/internal/repository/order"
	grpcserver "github.com/kooko-labs/kooko/internal/server/grpc"
	httpserver "github.com/kooko-labs/kooko/internal/server/http"
	serviceorder "github.com/kooko-labs/kooko/internal/service/order"
	transporthttp "github.com/kooko-labs/kooko/internal/transport/http"
	"github.com/kooko-labs/kooko/internal/worker"
	workerorder "github.com/kooko-labs/kooko/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	notifier.Module,
	observability.Module,
	queue.Module,
	repositoryorder.Module,
	serviceorder.Module,
)

// HTTP wires the API surface on top of the core modules: the echo server,
// order and event-stream transports, the gRPC health endpoint, and the
// in-process event consumer feeding the websocket hub.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
	worker.Module,
	workerorder.Module,
)

// Worker exposes headless background event processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (API service).
var Module = HTTP
